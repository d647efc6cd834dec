package sqlite

import (
	"context"
	"database/sql"

	"github.com/meapp/restapi/internal/api/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, fullname, username, password_hash, totp_secret, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var secret sql.NullString
	err := row.Scan(&u.ID, &u.Fullname, &u.Username, &u.PasswordHash, &secret, &u.CreatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	u.TOTPSecret = mapNullStringPtr(secret)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, fullname, username, password_hash, totp_secret, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Fullname, u.Username, u.PasswordHash, mapOptionalString(u.TOTPSecret), u.CreatedAt)
	return mapErr(err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, mapErr(rows.Err())
}

func (r *usersRepo) UpdateTOTPSecret(ctx context.Context, userID string, secret *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = ? WHERE id = ?`,
		mapOptionalString(secret), userID)
	return mapErr(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return false, mapErr(err)
	}
	return count == 0, nil
}
