package sqlite

import (
	"context"

	"github.com/meapp/restapi/internal/api/domain"
)

type userPermissionsRepo struct {
	db dbtx
}

func (r *userPermissionsRepo) GetUserGrant(ctx context.Context, userTokenID, permissionID string) (domain.UserPermission, error) {
	var g domain.UserPermission
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_token_id, permission_id, granted FROM api_user_permissions
		 WHERE user_token_id = ? AND permission_id = ?`,
		userTokenID, permissionID).
		Scan(&g.ID, &g.UserTokenID, &g.PermissionID, &g.Granted)
	if err != nil {
		return domain.UserPermission{}, mapErr(err)
	}
	return g, nil
}

func (r *userPermissionsRepo) CreateUserGrant(ctx context.Context, g domain.UserPermission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_user_permissions (id, user_token_id, permission_id, granted)
		 VALUES (?, ?, ?, ?)`,
		g.ID, g.UserTokenID, g.PermissionID, g.Granted)
	return mapErr(err)
}

func (r *userPermissionsRepo) SetUserGrant(ctx context.Context, userTokenID, permissionID string, granted bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_user_permissions SET granted = ?
		 WHERE user_token_id = ? AND permission_id = ?`,
		granted, userTokenID, permissionID)
	return mapErr(err)
}

func (r *userPermissionsRepo) ListUserGrants(ctx context.Context, userTokenID string) ([]domain.UserPermission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_token_id, permission_id, granted FROM api_user_permissions
		 WHERE user_token_id = ?`, userTokenID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var grants []domain.UserPermission
	for rows.Next() {
		var g domain.UserPermission
		if err := rows.Scan(&g.ID, &g.UserTokenID, &g.PermissionID, &g.Granted); err != nil {
			return nil, mapErr(err)
		}
		grants = append(grants, g)
	}
	return grants, mapErr(rows.Err())
}

func (r *userPermissionsRepo) ListUserGrantDetails(ctx context.Context, userTokenID string) ([]domain.GrantDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.section, p.subject, p.description, g.granted
		 FROM api_user_permissions g
		 JOIN api_permissions p ON p.id = g.permission_id
		 WHERE g.user_token_id = ?
		 ORDER BY p.section, p.subject`, userTokenID)
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

func (r *userPermissionsRepo) DeleteUserGrantsForToken(ctx context.Context, userTokenID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM api_user_permissions WHERE user_token_id = ?`, userTokenID)
	return mapErr(err)
}
