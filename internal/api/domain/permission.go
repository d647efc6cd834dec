package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Permission is an immutable catalog entry describing one authorizable
// action, identified by the unique (section, subject) pair.
type Permission struct {
	ID          string
	Section     string
	Subject     string
	Description string
}

// String returns the canonical "section.subject" form.
func (p Permission) String() string {
	return p.Section + "." + p.Subject
}

// ErrInvalidPermission reports a permission string that is not of the
// "section.subject" form.
var ErrInvalidPermission = errors.New("domain: invalid permission string")

// ParsePermission splits a "section.subject" string into its two parts.
// Both parts must be non-empty and the string must contain exactly one dot.
func ParsePermission(s string) (section, subject string, err error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}
	return parts[0], parts[1], nil
}

// ClientPermission is a grant record determining whether a client token may
// exercise a permission. Unique per (client token, permission) pair.
type ClientPermission struct {
	ID            string
	ClientTokenID string
	PermissionID  string
	Granted       bool
}

// UserPermission is a grant record determining whether a user token may
// exercise a permission. Unique per (user token, permission) pair. Rows are
// copied snapshot-style from the client's grants when a user token is minted.
type UserPermission struct {
	ID           string
	UserTokenID  string
	PermissionID string
	Granted      bool
}

// GrantDetail is a grant joined with its permission catalog entry, used by
// the list endpoints.
type GrantDetail struct {
	Section     string
	Subject     string
	Description string
	Granted     bool
}
