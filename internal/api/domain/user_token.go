package domain

import "time"

// UserToken is a session credential binding a user to the client application
// it was issued under. The description is free text the user can set to
// recognise the session ("Work laptop").
type UserToken struct {
	ID            string
	Token         string // opaque, globally unique
	UserID        string
	ClientTokenID string
	Enabled       bool
	ExpiresAt     *time.Time // nil means the token never expires
	Description   *string
	CreatedAt     time.Time
}

// Expired reports whether the token expiration is strictly in the past.
// A token whose expiration equals now is still valid.
func (t UserToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
