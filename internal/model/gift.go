// Package model defines the data structures used throughout the application.
package model

import "time"

// Gift represents one claimable item in the registry.
//
// Available is the guarded field: it starts true and transitions to false
// exactly once, when a user claims the gift. ClaimedBy and ClaimedAt are
// write-once — they're set atomically with that transition and never change
// afterwards. A claimed gift is never deleted and never becomes available
// again through the normal API.
//
// ClaimedBy/ClaimedAt are pointers because they're NULL in the database
// until the gift is claimed. The JSON for an available gift omits them.
type Gift struct {
	ID          string     `json:"id"          db:"id"`
	Name        string     `json:"name"        db:"name"`
	Description string     `json:"description" db:"description"`
	Available   bool       `json:"available"   db:"available"`
	ClaimedBy   *string    `json:"claimedBy,omitempty" db:"claimed_by"`
	ClaimedAt   *time.Time `json:"claimedAt,omitempty" db:"claimed_at"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`

	// Claimant is the resolved profile of the claiming user, populated only
	// on admin reads (list/report). It is a projection, not a stored column.
	Claimant *Claimant `json:"claimant,omitempty" db:"-"`
}

// Claimant is the slice of a User shown to admins next to a claimed gift.
type Claimant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
