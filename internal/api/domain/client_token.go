package domain

import "time"

// ClientToken identifies a registered application. Clients authenticate with
// the opaque token string and are authorized per permission grant.
type ClientToken struct {
	ID           string
	Token        string // opaque, globally unique
	Enabled      bool
	ExpiresAt    *time.Time // nil means the token never expires
	AppName      string
	AppVersion   string
	AppPublisher string
	CreatedAt    time.Time
}

// Expired reports whether the token expiration is strictly in the past.
// A token whose expiration equals now is still valid.
func (t ClientToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
