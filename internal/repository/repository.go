// Package repository defines the storage interfaces the service layer
// depends on. The concrete implementation lives in repository/sqlite.
//
// The service layer is written against these interfaces, never against
// *sqlite.DB directly, so tests can substitute in-memory mocks and the
// store could be swapped without touching business logic.
package repository

import (
	"context"

	"github.com/AdrianoMiguel/CasaNovaGabs/internal/model"
)

// GiftRepository is the storage contract for the gift catalog.
//
// Claim is the one write that matters for correctness: it must perform the
// availability transition and the user-side bookkeeping atomically, so that
// under concurrent requests at most one claimant wins any gift and at most
// one gift is ever assigned to a user. Everything else is plain CRUD.
type GiftRepository interface {
	// Create inserts a new gift. Fills in ID and CreatedAt.
	Create(ctx context.Context, gift *model.Gift) error

	// GetByID returns a gift or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Gift, error)

	// GetByClaimant returns the gift claimed by the given user, or
	// apperror.ErrNotFound if the user holds no claim. Used by the
	// read-time reconciliation path.
	GetByClaimant(ctx context.Context, userID string) (*model.Gift, error)

	// ListAvailable returns unclaimed gifts ordered by creation time
	// ascending. This is the non-admin catalog view.
	ListAvailable(ctx context.Context) ([]model.Gift, error)

	// ListAll returns every gift with the claimant profile resolved,
	// ordered by creation time ascending. Admin catalog view.
	ListAll(ctx context.Context) ([]model.Gift, error)

	// ListForReport returns every gift with the claimant resolved, claimed
	// gifts first (most recent claim first). Admin report view.
	ListForReport(ctx context.Context) ([]model.Gift, error)

	// Update rewrites name/description of an unclaimed gift. Returns
	// apperror.ErrNotFound if the gift doesn't exist.
	Update(ctx context.Context, gift *model.Gift) error

	// Delete removes a gift. Returns apperror.ErrNotFound if it doesn't
	// exist.
	Delete(ctx context.Context, id string) error

	// Claim atomically transitions the gift from available to claimed by
	// userID and records the claim on the user, in a single transaction.
	//
	// Errors:
	//   - apperror.ErrUnavailable: the gift doesn't exist or was already
	//     claimed (the two cases are deliberately indistinguishable)
	//   - apperror.ErrForbidden: the user already holds a claim
	// On any error the store is left unchanged.
	Claim(ctx context.Context, giftID, userID string) (*model.Gift, error)
}

// UserRepository is the storage contract for user accounts.
type UserRepository interface {
	// Upsert creates the user on first login or refreshes profile fields
	// (name, email, photo, admin flag) on subsequent logins, keyed by
	// GoogleID. Fills in ID and timestamps; preserves claim state on
	// existing rows.
	Upsert(ctx context.Context, user *model.User) error

	// GetByID returns a user or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// SetChosenGift marks the user as having claimed the given gift.
	// Used only by read-time reconciliation; the normal claim path writes
	// this inside the Claim transaction.
	SetChosenGift(ctx context.Context, userID, giftID string) error
}
