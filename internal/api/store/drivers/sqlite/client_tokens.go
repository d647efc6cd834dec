package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/meapp/restapi/internal/api/domain"
)

type clientTokensRepo struct {
	db dbtx
}

const clientTokenColumns = `id, token, enabled, expires_at, app_name, app_version, app_publisher, created_at`

func scanClientToken(row interface{ Scan(...any) error }) (domain.ClientToken, error) {
	var t domain.ClientToken
	var expires sql.NullTime
	err := row.Scan(&t.ID, &t.Token, &t.Enabled, &expires,
		&t.AppName, &t.AppVersion, &t.AppPublisher, &t.CreatedAt)
	if err != nil {
		return domain.ClientToken{}, mapErr(err)
	}
	t.ExpiresAt = mapNullTimePtr(expires)
	return t, nil
}

func (r *clientTokensRepo) GetClientTokenByToken(ctx context.Context, token string) (domain.ClientToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientTokenColumns+` FROM api_client_tokens WHERE token = ?`, token)
	return scanClientToken(row)
}

func (r *clientTokensRepo) GetClientTokenByID(ctx context.Context, id string) (domain.ClientToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientTokenColumns+` FROM api_client_tokens WHERE id = ?`, id)
	return scanClientToken(row)
}

func (r *clientTokensRepo) CreateClientToken(ctx context.Context, t domain.ClientToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_client_tokens
		   (id, token, enabled, expires_at, app_name, app_version, app_publisher, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Token, t.Enabled, mapOptionalTime(t.ExpiresAt),
		t.AppName, t.AppVersion, t.AppPublisher, t.CreatedAt)
	return mapErr(err)
}

func (r *clientTokensRepo) ListClientTokens(ctx context.Context) ([]domain.ClientToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientTokenColumns+` FROM api_client_tokens ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var tokens []domain.ClientToken
	for rows.Next() {
		t, err := scanClientToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, mapErr(rows.Err())
}

func (r *clientTokensRepo) SetClientTokenEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_client_tokens SET enabled = ? WHERE id = ?`, enabled, id)
	return mapErr(err)
}

func (r *clientTokensRepo) SetClientTokenExpiration(ctx context.Context, id string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_client_tokens SET expires_at = ? WHERE id = ?`, mapOptionalTime(expiresAt), id)
	return mapErr(err)
}

func (r *clientTokensRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_client_tokens`).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count == 0, nil
}
