package sqlite

import (
	"context"

	"github.com/meapp/restapi/internal/api/domain"
)

type clientLogRepo struct {
	db dbtx
}

func (r *clientLogRepo) InsertClientLogEntry(ctx context.Context, e domain.ClientLogEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_client_log
		   (id, logged_at, remote_addr, client_token_id, method, api_group, api_endpoint, permission_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.LoggedAt, e.RemoteAddr, e.ClientTokenID,
		e.Method, e.APIGroup, e.APIEndpoint, e.PermissionID)
	return mapErr(err)
}

func (r *clientLogRepo) ListClientLogEntries(ctx context.Context, clientTokenID string) ([]domain.ClientLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, logged_at, remote_addr, client_token_id, method, api_group, api_endpoint, permission_id
		 FROM api_client_log WHERE client_token_id = ? ORDER BY logged_at DESC`, clientTokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var entries []domain.ClientLogEntry
	for rows.Next() {
		var e domain.ClientLogEntry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.RemoteAddr, &e.ClientTokenID,
			&e.Method, &e.APIGroup, &e.APIEndpoint, &e.PermissionID); err != nil {
			return nil, mapErr(err)
		}
		entries = append(entries, e)
	}
	return entries, mapErr(rows.Err())
}

type userLogRepo struct {
	db dbtx
}

func (r *userLogRepo) InsertUserLogEntry(ctx context.Context, e domain.UserLogEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_user_log
		   (id, logged_at, user_token_id, method, api_group, api_endpoint, permission_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.LoggedAt, e.UserTokenID, e.Method, e.APIGroup, e.APIEndpoint, e.PermissionID)
	return mapErr(err)
}

func (r *userLogRepo) ListUserLogEntries(ctx context.Context, userTokenID string) ([]domain.UserLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, logged_at, user_token_id, method, api_group, api_endpoint, permission_id
		 FROM api_user_log WHERE user_token_id = ? ORDER BY logged_at DESC`, userTokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var entries []domain.UserLogEntry
	for rows.Next() {
		var e domain.UserLogEntry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.UserTokenID,
			&e.Method, &e.APIGroup, &e.APIEndpoint, &e.PermissionID); err != nil {
			return nil, mapErr(err)
		}
		entries = append(entries, e)
	}
	return entries, mapErr(rows.Err())
}
