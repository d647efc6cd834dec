package domain

import "time"

// User is an account that can authenticate with username/password and,
// optionally, a TOTP second factor. The password hash and TOTP secret are
// sensitive and must never be serialized to API responses.
type User struct {
	ID           string
	Fullname     string
	Username     string
	PasswordHash string  // argon2id encoded
	TOTPSecret   *string // base32 encoded, nil when no second factor is set up
	CreatedAt    time.Time
}

// SecondFactorEnabled reports whether the user has a verified second factor.
func (u User) SecondFactorEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}
