package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/apperror"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
	"github.com/AdrianoMiguel/CasaNovaGabs/internal/repository"
)

// compile-time check that *GiftDB implements repository.GiftRepository
var _ repository.GiftRepository = (*GiftDB)(nil)

// GiftDB implements repository.GiftRepository on SQLite.
type GiftDB struct {
	conn *sql.DB
}

// Create inserts a new gift. The ID is generated here (xid — sortable,
// URL-safe) and CreatedAt is set to now.
func (g *GiftDB) Create(ctx context.Context, gift *model.Gift) error {
	gift.ID = xid.New().String()
	gift.Available = true
	gift.CreatedAt = time.Now()

	_, err := g.conn.ExecContext(ctx,
		`INSERT INTO gifts (id, name, description, available, created_at)
		 VALUES (?, ?, ?, 1, ?)`,
		gift.ID,
		gift.Name,
		gift.Description,
		gift.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting gift %q: %w", gift.Name, err)
	}

	return nil
}

// GetByID retrieves a gift by its ID.
// Returns apperror.ErrNotFound if no gift exists with that ID.
func (g *GiftDB) GetByID(ctx context.Context, id string) (*model.Gift, error) {
	row := g.conn.QueryRowContext(ctx,
		`SELECT id, name, description, available, claimed_by, claimed_at, created_at
		 FROM gifts WHERE id = ?`,
		id,
	)

	gift, err := scanGift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("gift", id)
		}
		return nil, fmt.Errorf("sqlite: getting gift %s: %w", id, err)
	}

	return gift, nil
}

// GetByClaimant retrieves the gift claimed by the given user.
// Returns apperror.ErrNotFound if the user holds no claim.
//
// At most one row can match: a user's claim is recorded by the claim
// transaction, which refuses a second claim for the same user.
func (g *GiftDB) GetByClaimant(ctx context.Context, userID string) (*model.Gift, error) {
	row := g.conn.QueryRowContext(ctx,
		`SELECT id, name, description, available, claimed_by, claimed_at, created_at
		 FROM gifts WHERE claimed_by = ?`,
		userID,
	)

	gift, err := scanGift(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("claimed gift for user", userID)
		}
		return nil, fmt.Errorf("sqlite: getting gift claimed by %s: %w", userID, err)
	}

	return gift, nil
}

// ListAvailable returns unclaimed gifts, oldest first. This is the catalog
// a guest browses.
func (g *GiftDB) ListAvailable(ctx context.Context) ([]model.Gift, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT id, name, description, available, claimed_by, claimed_at, created_at
		 FROM gifts WHERE available = 1
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing available gifts: %w", err)
	}
	defer rows.Close()

	return collectGifts(rows)
}

// ListAll returns every gift with the claimant profile resolved, oldest
// first. Admin catalog view.
func (g *GiftDB) ListAll(ctx context.Context) ([]model.Gift, error) {
	return g.listWithClaimant(ctx, `ORDER BY g.created_at ASC, g.id ASC`)
}

// ListForReport returns every gift with the claimant resolved, most
// recently claimed first; unclaimed gifts sort last (SQLite treats NULL as
// smaller than any value, so claimed_at DESC pushes NULLs to the end).
func (g *GiftDB) ListForReport(ctx context.Context) ([]model.Gift, error) {
	return g.listWithClaimant(ctx, `ORDER BY g.claimed_at DESC, g.created_at ASC`)
}

// listWithClaimant runs the admin projection: every gift LEFT JOINed to
// its claiming user, so available gifts come back with a NULL claimant.
func (g *GiftDB) listWithClaimant(ctx context.Context, orderBy string) ([]model.Gift, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.available, g.claimed_by, g.claimed_at, g.created_at,
		        u.name, u.email
		 FROM gifts g
		 LEFT JOIN users u ON u.id = g.claimed_by `+orderBy,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gifts with claimant: %w", err)
	}
	defer rows.Close()

	gifts := []model.Gift{}
	for rows.Next() {
		var (
			gift          model.Gift
			claimedBy     sql.NullString
			claimedAt     sql.NullTime
			claimantName  sql.NullString
			claimantEmail sql.NullString
		)
		if err := rows.Scan(
			&gift.ID,
			&gift.Name,
			&gift.Description,
			&gift.Available,
			&claimedBy,
			&claimedAt,
			&gift.CreatedAt,
			&claimantName,
			&claimantEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning gift row: %w", err)
		}
		if claimedBy.Valid {
			gift.ClaimedBy = &claimedBy.String
		}
		if claimedAt.Valid {
			gift.ClaimedAt = &claimedAt.Time
		}
		if claimantName.Valid {
			gift.Claimant = &model.Claimant{
				Name:  claimantName.String,
				Email: claimantEmail.String,
			}
		}
		gifts = append(gifts, gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gift rows: %w", err)
	}

	return gifts, nil
}

// Update rewrites name and description. The service layer guarantees the
// gift is still unclaimed before calling this; the WHERE clause doesn't
// re-check because admin edits aren't racing claims for correctness —
// a claimed gift's name change would be rejected upstream anyway.
func (g *GiftDB) Update(ctx context.Context, gift *model.Gift) error {
	res, err := g.conn.ExecContext(ctx,
		`UPDATE gifts SET name = ?, description = ? WHERE id = ?`,
		gift.Name,
		gift.Description,
		gift.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating gift %s: %w", gift.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for gift %s: %w", gift.ID, err)
	}
	if rows == 0 {
		return apperror.NotFound("gift", gift.ID)
	}

	return nil
}

// Delete removes a gift by ID.
// Returns apperror.ErrNotFound if the gift doesn't exist.
func (g *GiftDB) Delete(ctx context.Context, id string) error {
	res, err := g.conn.ExecContext(ctx, `DELETE FROM gifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting gift %s: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for gift %s: %w", id, err)
	}
	if rows == 0 {
		return apperror.NotFound("gift", id)
	}

	return nil
}

// Claim atomically assigns the gift to the user.
//
// THE GUARD:
// The first UPDATE's WHERE clause is the whole race-condition defence:
//
//	UPDATE gifts SET available=0, claimed_by=?, claimed_at=?
//	WHERE id=? AND available=1
//
// SQLite evaluates the predicate and the write as one atomic step, so when
// two requests race on the same gift, exactly one UPDATE reports one
// affected row and the other reports zero. Zero rows means "already
// claimed or never existed" — we don't issue an extra read to tell those
// apart, and we don't retry; the caller picks another gift.
//
// THE RECONCILE:
// The second UPDATE records the claim on the user row inside the SAME
// transaction, conditional on has_chosen_gift=0. That makes the store
// itself enforce one-gift-per-user: even if the service-level eligibility
// gate is bypassed, a second claim rolls back here and the gift stays
// available. Commit is all-or-nothing, so there is no window where the
// gift is claimed but the user isn't marked.
func (g *GiftDB) Claim(ctx context.Context, giftID, userID string) (*model.Gift, error) {
	tx, err := g.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning claim transaction: %w", err)
	}
	// No-op after a successful Commit.
	defer tx.Rollback()

	now := time.Now()

	res, err := tx.ExecContext(ctx,
		`UPDATE gifts SET available = 0, claimed_by = ?, claimed_at = ?
		 WHERE id = ? AND available = 1`,
		userID,
		now,
		giftID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: claiming gift %s: %w", giftID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows affected claiming gift %s: %w", giftID, err)
	}
	if rows == 0 {
		return nil, apperror.Unavailable("this gift is no longer available or was already chosen")
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET has_chosen_gift = 1, chosen_gift = ?, updated_at = ?
		 WHERE id = ? AND has_chosen_gift = 0`,
		giftID,
		now,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recording claim for user %s: %w", userID, err)
	}

	rows, err = res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows affected recording claim for user %s: %w", userID, err)
	}
	if rows == 0 {
		// User already holds a claim (or doesn't exist). The rollback undoes
		// the gift update above, so the gift remains available.
		return nil, apperror.Forbidden("you have already chosen a gift")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing claim of gift %s: %w", giftID, err)
	}

	return g.GetByID(ctx, giftID)
}

// Purge deletes every gift. Used by cmd/seed to reset the catalog; never
// reachable from the HTTP surface.
func (g *GiftDB) Purge(ctx context.Context) error {
	if _, err := g.conn.ExecContext(ctx, `DELETE FROM gifts`); err != nil {
		return fmt.Errorf("sqlite: purging gifts: %w", err)
	}
	return nil
}

// scanner is the common subset of *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanGift reads one gift row (without the claimant join).
func scanGift(row scanner) (*model.Gift, error) {
	var (
		gift      model.Gift
		claimedBy sql.NullString
		claimedAt sql.NullTime
	)
	err := row.Scan(
		&gift.ID,
		&gift.Name,
		&gift.Description,
		&gift.Available,
		&claimedBy,
		&claimedAt,
		&gift.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if claimedBy.Valid {
		gift.ClaimedBy = &claimedBy.String
	}
	if claimedAt.Valid {
		gift.ClaimedAt = &claimedAt.Time
	}
	return &gift, nil
}

// collectGifts drains a result set produced by the unjoined SELECT.
func collectGifts(rows *sql.Rows) ([]model.Gift, error) {
	gifts := []model.Gift{}
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning gift row: %w", err)
		}
		gifts = append(gifts, *gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gift rows: %w", err)
	}
	return gifts, nil
}
