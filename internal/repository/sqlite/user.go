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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository on SQLite.
type UserDB struct {
	conn *sql.DB
}

// Upsert inserts or updates a user keyed by their Google subject ID.
//
// First login → INSERT with a fresh internal ID. Subsequent logins →
// UPDATE of the profile fields (name, email, photo, admin flag), keeping
// the existing internal ID and — crucially — the claim columns, which are
// owned by the claim transaction, not by login.
//
// The admin flag is written on every login, so allow-list changes take
// effect at the account's next authentication.
func (u *UserDB) Upsert(ctx context.Context, user *model.User) error {
	var existingID string
	err := u.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE google_id = ?`, user.GoogleID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by google_id: %w", err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = u.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, photo_url = ?, is_admin = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.Name,
			user.PhotoURL,
			user.IsAdmin,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}

		// Pick up the claim state so the caller sees the full record.
		stored, err := u.GetByID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("sqlite: re-reading user %s after update: %w", user.ID, err)
		}
		user.HasChosenGift = stored.HasChosenGift
		user.ChosenGiftID = stored.ChosenGiftID
		user.CreatedAt = stored.CreatedAt
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = u.conn.ExecContext(ctx,
		`INSERT INTO users (id, google_id, email, name, photo_url, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Name,
		user.PhotoURL,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var (
		user       model.User
		chosenGift sql.NullString
	)

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, google_id, email, name, photo_url, is_admin, has_chosen_gift, chosen_gift,
		        created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Name,
		&user.PhotoURL,
		&user.IsAdmin,
		&user.HasChosenGift,
		&chosenGift,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	if chosenGift.Valid {
		user.ChosenGiftID = &chosenGift.String
	}

	return &user, nil
}

// SetChosenGift marks the user as having claimed the given gift, outside
// the claim transaction. This is the read-time reconciliation write: the
// gift row already says claimed_by=userID, only the user-side mirror is
// missing (e.g. data imported from a store without transactions).
func (u *UserDB) SetChosenGift(ctx context.Context, userID, giftID string) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET has_chosen_gift = 1, chosen_gift = ?, updated_at = ?
		 WHERE id = ?`,
		giftID,
		time.Now(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting chosen gift for user %s: %w", userID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for user %s: %w", userID, err)
	}
	if rows == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}
