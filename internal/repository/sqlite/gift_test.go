package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/apperror"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database that is
// destroyed when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestGift creates a gift and fails the test if it errors.
func createTestGift(t *testing.T, g *GiftDB, name, description string) *model.Gift {
	t.Helper()
	gift := &model.Gift{Name: name, Description: description}
	if err := g.Create(context.Background(), gift); err != nil {
		t.Fatalf("failed to create test gift: %v", err)
	}
	return gift
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestGiftCreate(t *testing.T) {
	g := newTestDB(t).Gifts()

	gift := &model.Gift{Name: "Cafeteira Elétrica", Description: "Para 12 xícaras"}
	if err := g.Create(context.Background(), gift); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if gift.ID == "" {
		t.Error("Create() did not set gift.ID")
	}
	if !gift.Available {
		t.Error("Create() should leave the gift available")
	}
	if gift.CreatedAt.IsZero() {
		t.Error("Create() did not set gift.CreatedAt")
	}
}

func TestGiftGetByID(t *testing.T) {
	g := newTestDB(t).Gifts()
	created := createTestGift(t, g, "Liquidificador", "Potência de 600W")

	found, err := g.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Liquidificador" {
		t.Errorf("Name = %q, want %q", found.Name, "Liquidificador")
	}
	if !found.Available {
		t.Error("a freshly created gift should be available")
	}
	if found.ClaimedBy != nil || found.ClaimedAt != nil {
		t.Error("a freshly created gift should have no claimant")
	}
}

func TestGiftGetByID_NotFound(t *testing.T) {
	g := newTestDB(t).Gifts()

	_, err := g.GetByID(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("GetByID() should error on nonexistent ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListAvailable_ExcludesClaimed(t *testing.T) {
	db := newTestDB(t)
	g := db.Gifts()
	user := createTestUser(t, db.Users(), "g-1", "u1@example.com")

	first := createTestGift(t, g, "Toalhas de Banho", "")
	createTestGift(t, g, "Jogo de Copos", "")

	if _, err := g.Claim(context.Background(), first.ID, user.ID); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	gifts, err := g.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}
	if len(gifts) != 1 {
		t.Fatalf("ListAvailable() returned %d gifts, want 1", len(gifts))
	}
	if gifts[0].Name != "Jogo de Copos" {
		t.Errorf("remaining gift = %q, want %q", gifts[0].Name, "Jogo de Copos")
	}
}

func TestListAvailable_OrderedByCreation(t *testing.T) {
	g := newTestDB(t).Gifts()

	createTestGift(t, g, "first", "")
	createTestGift(t, g, "second", "")
	createTestGift(t, g, "third", "")

	gifts, err := g.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(gifts) != len(want) {
		t.Fatalf("ListAvailable() returned %d gifts, want %d", len(gifts), len(want))
	}
	for i, name := range want {
		if gifts[i].Name != name {
			t.Errorf("gifts[%d].Name = %q, want %q", i, gifts[i].Name, name)
		}
	}
}

func TestListAll_ResolvesClaimant(t *testing.T) {
	db := newTestDB(t)
	g := db.Gifts()
	user := createTestUser(t, db.Users(), "g-2", "maria@example.com")

	gift := createTestGift(t, g, "Mixer", "Com 3 velocidades")
	createTestGift(t, g, "Assadeiras", "")

	if _, err := g.Claim(context.Background(), gift.ID, user.ID); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	gifts, err := g.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(gifts) != 2 {
		t.Fatalf("ListAll() returned %d gifts, want 2", len(gifts))
	}

	claimed := gifts[0]
	if claimed.Claimant == nil {
		t.Fatal("claimed gift should have a resolved claimant")
	}
	if claimed.Claimant.Email != "maria@example.com" {
		t.Errorf("claimant email = %q, want %q", claimed.Claimant.Email, "maria@example.com")
	}
	if gifts[1].Claimant != nil {
		t.Error("available gift should have no claimant")
	}
}

// =========================================================================
// CLAIM GUARD TESTS
// =========================================================================

func TestClaim_Success(t *testing.T) {
	db := newTestDB(t)
	g := db.Gifts()
	user := createTestUser(t, db.Users(), "g-3", "u3@example.com")
	gift := createTestGift(t, g, "Ferro de Passar", "")

	claimed, err := g.Claim(context.Background(), gift.ID, user.ID)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	if claimed.Available {
		t.Error("claimed gift should not be available")
	}
	if claimed.ClaimedBy == nil || *claimed.ClaimedBy != user.ID {
		t.Errorf("ClaimedBy = %v, want %q", claimed.ClaimedBy, user.ID)
	}
	if claimed.ClaimedAt == nil {
		t.Error("Claim() did not set ClaimedAt")
	}

	// The user-side mirror must be written in the same transaction.
	stored, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.HasChosenGift {
		t.Error("user should be marked as having chosen a gift")
	}
	if stored.ChosenGiftID == nil || *stored.ChosenGiftID != gift.ID {
		t.Errorf("ChosenGiftID = %v, want %q", stored.ChosenGiftID, gift.ID)
	}
}

func TestClaim_AlreadyClaimed(t *testing.T) {
	db := newTestDB(t)
	g := db.Gifts()
	u1 := createTestUser(t, db.Users(), "g-4", "u4@example.com")
	u2 := createTestUser(t, db.Users(), "g-5", "u5@example.com")
	gift := createTestGift(t, g, "Jogo de Cama", "")

	if _, err := g.Claim(context.Background(), gift.ID, u1.ID); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}

	_, err := g.Claim(context.Background(), gift.ID, u2.ID)
	if err == nil {
		t.Fatal("second Claim() should fail")
	}
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}

	// The original claim must be untouched.
	stored, err := g.GetByID(context.Background(), gift.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.ClaimedBy == nil || *stored.ClaimedBy != u1.ID {
		t.Errorf("ClaimedBy = %v, want %q (first claimant)", stored.ClaimedBy, u1.ID)
	}
}

func TestClaim_NonexistentGift(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "g-6", "u6@example.com")

	// A missing gift and a lost race surface as the same error.
	_, err := db.Gifts().Claim(context.Background(), "no-such-gift", user.ID)
	if err == nil {
		t.Fatal("Claim() should fail for a nonexistent gift")
	}
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestClaim_SecondGiftSameUser(t *testing.T) {
	// The store-level one-gift-per-user check. This bypasses the service
	// eligibility gate entirely: the conditional user UPDATE inside the
	// claim transaction must reject the second claim and roll back the
	// gift update.
	db := newTestDB(t)
	g := db.Gifts()
	user := createTestUser(t, db.Users(), "g-7", "u7@example.com")
	first := createTestGift(t, g, "Tábua de Vidro", "")
	second := createTestGift(t, g, "Panelas", "")

	if _, err := g.Claim(context.Background(), first.ID, user.ID); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}

	_, err := g.Claim(context.Background(), second.ID, user.ID)
	if err == nil {
		t.Fatal("second Claim() by the same user should fail")
	}
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}

	// The rollback must leave the second gift available.
	stored, err := g.GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !stored.Available {
		t.Error("second gift should still be available after the rolled-back claim")
	}
	if stored.ClaimedBy != nil {
		t.Errorf("second gift ClaimedBy = %v, want nil", *stored.ClaimedBy)
	}
}

func TestClaim_ConcurrentClaimants(t *testing.T) {
	// The primary property: N users race for one gift, exactly one wins
	// and the rest observe ErrUnavailable, under arbitrary interleaving.
	const claimants = 16

	db := newTestDB(t)
	g := db.Gifts()
	gift := createTestGift(t, g, "Jogo de Panelas", "Conjunto com 5 peças")

	userIDs := make([]string, claimants)
	for i := range userIDs {
		u := createTestUser(t, db.Users(),
			fmt.Sprintf("google-%d", i), fmt.Sprintf("guest%d@example.com", i))
		userIDs[i] = u.ID
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, claimants)
	)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.Claim(context.Background(), gift.ID, userIDs[i])
		}(i)
	}
	wg.Wait()

	winners, losers := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, apperror.ErrUnavailable):
			losers++
		default:
			t.Errorf("claimant %d: unexpected error %v", i, err)
		}
	}

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if losers != claimants-1 {
		t.Errorf("losers = %d, want %d", losers, claimants-1)
	}

	// Exactly one user may hold the claim.
	stored, err := g.GetByID(context.Background(), gift.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Available {
		t.Error("gift should be claimed after the race")
	}
	if stored.ClaimedBy == nil {
		t.Fatal("gift should record its claimant")
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestGiftUpdate(t *testing.T) {
	g := newTestDB(t).Gifts()
	gift := createTestGift(t, g, "old name", "old description")

	gift.Name = "new name"
	gift.Description = "new description"
	if err := g.Update(context.Background(), gift); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored, err := g.GetByID(context.Background(), gift.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Name != "new name" || stored.Description != "new description" {
		t.Errorf("stored gift = %q/%q, want new name/new description", stored.Name, stored.Description)
	}
}

func TestGiftUpdate_NotFound(t *testing.T) {
	g := newTestDB(t).Gifts()

	err := g.Update(context.Background(), &model.Gift{ID: "nonexistent", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGiftDelete(t *testing.T) {
	g := newTestDB(t).Gifts()
	gift := createTestGift(t, g, "doomed", "")

	if err := g.Delete(context.Background(), gift.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := g.GetByID(context.Background(), gift.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}
}

func TestGiftDelete_NotFound(t *testing.T) {
	g := newTestDB(t).Gifts()

	err := g.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// RECONCILIATION SUPPORT
// =========================================================================

func TestGetByClaimant(t *testing.T) {
	db := newTestDB(t)
	g := db.Gifts()
	user := createTestUser(t, db.Users(), "g-8", "u8@example.com")
	gift := createTestGift(t, g, "Cafeteira", "")

	if _, err := g.Claim(context.Background(), gift.ID, user.ID); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	found, err := g.GetByClaimant(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByClaimant() error = %v", err)
	}
	if found.ID != gift.ID {
		t.Errorf("GetByClaimant() = %s, want %s", found.ID, gift.ID)
	}
}

func TestGetByClaimant_NoClaim(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db.Users(), "g-9", "u9@example.com")

	_, err := db.Gifts().GetByClaimant(context.Background(), user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
