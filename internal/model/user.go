package model

import "time"

// User represents a registered guest (or administrator) account.
//
// We use Google OAuth as the identity provider, so the stable external
// identifier is the Google subject ID (a string). We still generate our own
// internal xid for consistency with Gift and to avoid tying our primary
// keys to a third-party's numbering scheme.
//
// IsAdmin is derived from the ADMIN_EMAILS allow-list. It is re-evaluated
// and persisted on every login, so dropping an address from the list
// demotes the account the next time it authenticates.
//
// HasChosenGift/ChosenGiftID mirror the gift side of a claim: when true,
// exactly one Gift has ClaimedBy == this user's ID. The claim transaction
// keeps both sides in step; the current-user read path repairs the mirror
// if it ever finds it out of step.
type User struct {
	ID            string    `json:"id"            db:"id"`
	GoogleID      string    `json:"-"             db:"google_id"` // Google's subject ID — never exposed
	Email         string    `json:"email"         db:"email"`
	Name          string    `json:"name"          db:"name"`
	PhotoURL      string    `json:"photoUrl"      db:"photo_url"` // profile picture (may be empty)
	IsAdmin       bool      `json:"isAdmin"       db:"is_admin"`
	HasChosenGift bool      `json:"hasChosenGift" db:"has_chosen_gift"`
	ChosenGiftID  *string   `json:"chosenGift"    db:"chosen_gift"` // null until a claim succeeds
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"-"             db:"updated_at"`
}
