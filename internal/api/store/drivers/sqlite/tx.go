package sqlite

import (
	"context"
	"database/sql"

	"github.com/meapp/restapi/internal/api/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // nothing to close; caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations are applied before starting a tx

func (t *txStore) Users() store.Users               { return &usersRepo{db: t.tx} }
func (t *txStore) ClientTokens() store.ClientTokens { return &clientTokensRepo{db: t.tx} }
func (t *txStore) UserTokens() store.UserTokens     { return &userTokensRepo{db: t.tx} }
func (t *txStore) Permissions() store.Permissions   { return &permissionsRepo{db: t.tx} }
func (t *txStore) ClientPermissions() store.ClientPermissions {
	return &clientPermissionsRepo{db: t.tx}
}
func (t *txStore) UserPermissions() store.UserPermissions { return &userPermissionsRepo{db: t.tx} }
func (t *txStore) ClientLog() store.ClientLog             { return &clientLogRepo{db: t.tx} }
func (t *txStore) UserLog() store.UserLog                 { return &userLogRepo{db: t.tx} }
