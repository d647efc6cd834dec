package store

import (
	"context"
	"errors"
	"time"

	"github.com/meapp/restapi/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	ClientTokens() ClientTokens
	UserTokens() UserTokens
	Permissions() Permissions
	ClientPermissions() ClientPermissions
	UserPermissions() UserPermissions
	ClientLog() ClientLog
	UserLog() UserLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used when verifying credentials.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// UpdateTOTPSecret sets or clears the second-factor secret.
	UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type ClientTokens interface {
	// GetClientTokenByToken resolves the opaque token string during authentication.
	GetClientTokenByToken(ctx context.Context, token string) (domain.ClientToken, error)

	// GetClientTokenByID returns a client token by id.
	GetClientTokenByID(ctx context.Context, id string) (domain.ClientToken, error)

	// CreateClientToken inserts a new client token.
	CreateClientToken(ctx context.Context, t domain.ClientToken) error

	// ListClientTokens returns all client tokens ordered by creation date (newest first).
	ListClientTokens(ctx context.Context) ([]domain.ClientToken, error)

	// SetClientTokenEnabled toggles the enabled flag.
	SetClientTokenEnabled(ctx context.Context, id string, enabled bool) error

	// SetClientTokenExpiration replaces the expiration timestamp (nil clears it).
	SetClientTokenExpiration(ctx context.Context, id string, expiresAt *time.Time) error

	// IsEmpty returns true if there are no client tokens.
	IsEmpty(ctx context.Context) (bool, error)
}

type UserTokens interface {
	// GetUserTokenByToken resolves the opaque token string during authentication.
	GetUserTokenByToken(ctx context.Context, token string) (domain.UserToken, error)

	// GetUserTokenByID returns a user token by id.
	GetUserTokenByID(ctx context.Context, id string) (domain.UserToken, error)

	// CreateUserToken inserts a new user token.
	CreateUserToken(ctx context.Context, t domain.UserToken) error

	// ListUserTokensByUser returns all tokens owned by a user, newest first.
	ListUserTokensByUser(ctx context.Context, userID string) ([]domain.UserToken, error)

	// UpdateUserTokenDescription sets the free-text description.
	UpdateUserTokenDescription(ctx context.Context, id string, description *string) error

	// SetUserTokenEnabled toggles the enabled flag.
	SetUserTokenEnabled(ctx context.Context, id string, enabled bool) error

	// SetUserTokenExpiration replaces the expiration timestamp (nil clears it).
	// Used by the refresh flow, which guarantees the new value is in the future.
	SetUserTokenExpiration(ctx context.Context, id string, expiresAt *time.Time) error

	// DeleteUserToken removes the token row. Its permission grants must be
	// deleted first; the driver enforces this via foreign keys.
	DeleteUserToken(ctx context.Context, id string) error
}

type Permissions interface {
	// GetPermission resolves a (section, subject) pair against the catalog.
	GetPermission(ctx context.Context, section, subject string) (domain.Permission, error)

	// GetPermissionByID returns a permission by id.
	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)

	// CreatePermission inserts a catalog entry. Only used by catalog seeding.
	CreatePermission(ctx context.Context, p domain.Permission) error

	// ListPermissions returns the whole catalog ordered by section, subject.
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
}

type ClientPermissions interface {
	// GetClientGrant returns the grant row for a (client token, permission) pair.
	GetClientGrant(ctx context.Context, clientTokenID, permissionID string) (domain.ClientPermission, error)

	// CreateClientGrant inserts a grant row. A duplicate (token, permission)
	// pair returns ErrAlreadyExists via the unique constraint.
	CreateClientGrant(ctx context.Context, g domain.ClientPermission) error

	// SetClientGrant updates the granted flag of an existing row.
	SetClientGrant(ctx context.Context, clientTokenID, permissionID string, granted bool) error

	// ListClientGrants returns all grant rows for a client token.
	ListClientGrants(ctx context.Context, clientTokenID string) ([]domain.ClientPermission, error)

	// ListClientGrantDetails returns grants joined with the permission catalog.
	ListClientGrantDetails(ctx context.Context, clientTokenID string) ([]domain.GrantDetail, error)
}

type UserPermissions interface {
	// GetUserGrant returns the grant row for a (user token, permission) pair.
	GetUserGrant(ctx context.Context, userTokenID, permissionID string) (domain.UserPermission, error)

	// CreateUserGrant inserts a grant row. A duplicate (token, permission)
	// pair returns ErrAlreadyExists via the unique constraint.
	CreateUserGrant(ctx context.Context, g domain.UserPermission) error

	// SetUserGrant updates the granted flag of an existing row.
	SetUserGrant(ctx context.Context, userTokenID, permissionID string, granted bool) error

	// ListUserGrants returns all grant rows for a user token.
	ListUserGrants(ctx context.Context, userTokenID string) ([]domain.UserPermission, error)

	// ListUserGrantDetails returns grants joined with the permission catalog.
	ListUserGrantDetails(ctx context.Context, userTokenID string) ([]domain.GrantDetail, error)

	// DeleteUserGrantsForToken removes all grants of a user token, as the
	// first step of token removal.
	DeleteUserGrantsForToken(ctx context.Context, userTokenID string) error
}

type ClientLog interface {
	// InsertClientLogEntry writes one audit record. Entries are never updated
	// or deleted.
	InsertClientLogEntry(ctx context.Context, e domain.ClientLogEntry) error

	// ListClientLogEntries returns audit records for a client token, newest first.
	ListClientLogEntries(ctx context.Context, clientTokenID string) ([]domain.ClientLogEntry, error)
}

type UserLog interface {
	// InsertUserLogEntry writes one audit record. Entries are never updated
	// or deleted.
	InsertUserLogEntry(ctx context.Context, e domain.UserLogEntry) error

	// ListUserLogEntries returns audit records for a user token, newest first.
	ListUserLogEntries(ctx context.Context, userTokenID string) ([]domain.UserLogEntry, error)
}
