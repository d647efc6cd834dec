package domain

import "time"

// ClientLogEntry is an immutable audit record written once per authorized
// call, always for the acting client token.
type ClientLogEntry struct {
	ID            string
	LoggedAt      time.Time
	RemoteAddr    string
	ClientTokenID string
	Method        string
	APIGroup      string
	APIEndpoint   string
	PermissionID  string
}

// UserLogEntry is the user-token variant of the audit record, written
// additionally when a user token authorized the call.
type UserLogEntry struct {
	ID           string
	LoggedAt     time.Time
	UserTokenID  string
	Method       string
	APIGroup     string
	APIEndpoint  string
	PermissionID string
}
