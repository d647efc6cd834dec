package sqlite

import (
	"context"

	"github.com/meapp/restapi/internal/api/domain"
)

type clientPermissionsRepo struct {
	db dbtx
}

func (r *clientPermissionsRepo) GetClientGrant(ctx context.Context, clientTokenID, permissionID string) (domain.ClientPermission, error) {
	var g domain.ClientPermission
	err := r.db.QueryRowContext(ctx,
		`SELECT id, client_token_id, permission_id, granted FROM api_client_permissions
		 WHERE client_token_id = ? AND permission_id = ?`,
		clientTokenID, permissionID).
		Scan(&g.ID, &g.ClientTokenID, &g.PermissionID, &g.Granted)
	if err != nil {
		return domain.ClientPermission{}, mapErr(err)
	}
	return g, nil
}

func (r *clientPermissionsRepo) CreateClientGrant(ctx context.Context, g domain.ClientPermission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_client_permissions (id, client_token_id, permission_id, granted)
		 VALUES (?, ?, ?, ?)`,
		g.ID, g.ClientTokenID, g.PermissionID, g.Granted)
	return mapErr(err)
}

func (r *clientPermissionsRepo) SetClientGrant(ctx context.Context, clientTokenID, permissionID string, granted bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_client_permissions SET granted = ?
		 WHERE client_token_id = ? AND permission_id = ?`,
		granted, clientTokenID, permissionID)
	return mapErr(err)
}

func (r *clientPermissionsRepo) ListClientGrants(ctx context.Context, clientTokenID string) ([]domain.ClientPermission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, client_token_id, permission_id, granted FROM api_client_permissions
		 WHERE client_token_id = ?`, clientTokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var grants []domain.ClientPermission
	for rows.Next() {
		var g domain.ClientPermission
		if err := rows.Scan(&g.ID, &g.ClientTokenID, &g.PermissionID, &g.Granted); err != nil {
			return nil, mapErr(err)
		}
		grants = append(grants, g)
	}
	return grants, mapErr(rows.Err())
}

func (r *clientPermissionsRepo) ListClientGrantDetails(ctx context.Context, clientTokenID string) ([]domain.GrantDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.section, p.subject, p.description, g.granted
		 FROM api_client_permissions g
		 JOIN api_permissions p ON p.id = g.permission_id
		 WHERE g.client_token_id = ?
		 ORDER BY p.section, p.subject`, clientTokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var details []domain.GrantDetail
	for rows.Next() {
		var d domain.GrantDetail
		if err := rows.Scan(&d.Section, &d.Subject, &d.Description, &d.Granted); err != nil {
			return nil, mapErr(err)
		}
		details = append(details, d)
	}
	return details, mapErr(rows.Err())
}
