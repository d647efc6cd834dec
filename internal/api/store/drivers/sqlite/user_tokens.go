package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/meapp/restapi/internal/api/domain"
)

type userTokensRepo struct {
	db dbtx
}

const userTokenColumns = `id, token, user_id, client_token_id, enabled, expires_at, description, created_at`

func scanUserToken(row interface{ Scan(...any) error }) (domain.UserToken, error) {
	var t domain.UserToken
	var expires sql.NullTime
	var description sql.NullString
	err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ClientTokenID,
		&t.Enabled, &expires, &description, &t.CreatedAt)
	if err != nil {
		return domain.UserToken{}, mapErr(err)
	}
	t.ExpiresAt = mapNullTimePtr(expires)
	t.Description = mapNullStringPtr(description)
	return t, nil
}

func (r *userTokensRepo) GetUserTokenByToken(ctx context.Context, token string) (domain.UserToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userTokenColumns+` FROM api_user_tokens WHERE token = ?`, token)
	return scanUserToken(row)
}

func (r *userTokensRepo) GetUserTokenByID(ctx context.Context, id string) (domain.UserToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userTokenColumns+` FROM api_user_tokens WHERE id = ?`, id)
	return scanUserToken(row)
}

func (r *userTokensRepo) CreateUserToken(ctx context.Context, t domain.UserToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_user_tokens
		   (id, token, user_id, client_token_id, enabled, expires_at, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Token, t.UserID, t.ClientTokenID, t.Enabled,
		mapOptionalTime(t.ExpiresAt), mapOptionalString(t.Description), t.CreatedAt)
	return mapErr(err)
}

func (r *userTokensRepo) ListUserTokensByUser(ctx context.Context, userID string) ([]domain.UserToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userTokenColumns+` FROM api_user_tokens WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var tokens []domain.UserToken
	for rows.Next() {
		t, err := scanUserToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, mapErr(rows.Err())
}

func (r *userTokensRepo) UpdateUserTokenDescription(ctx context.Context, id string, description *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_user_tokens SET description = ? WHERE id = ?`,
		mapOptionalString(description), id)
	return mapErr(err)
}

func (r *userTokensRepo) SetUserTokenEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_user_tokens SET enabled = ? WHERE id = ?`, enabled, id)
	return mapErr(err)
}

func (r *userTokensRepo) SetUserTokenExpiration(ctx context.Context, id string, expiresAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_user_tokens SET expires_at = ? WHERE id = ?`, mapOptionalTime(expiresAt), id)
	return mapErr(err)
}

func (r *userTokensRepo) DeleteUserToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM api_user_tokens WHERE id = ?`, id)
	return mapErr(err)
}
