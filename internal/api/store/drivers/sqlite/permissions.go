package sqlite

import (
	"context"

	"github.com/meapp/restapi/internal/api/domain"
)

type permissionsRepo struct {
	db dbtx
}

func scanPermission(row interface{ Scan(...any) error }) (domain.Permission, error) {
	var p domain.Permission
	err := row.Scan(&p.ID, &p.Section, &p.Subject, &p.Description)
	if err != nil {
		return domain.Permission{}, mapErr(err)
	}
	return p, nil
}

func (r *permissionsRepo) GetPermission(ctx context.Context, section, subject string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, section, subject, description FROM api_permissions
		 WHERE section = ? AND subject = ?`, section, subject)
	return scanPermission(row)
}

func (r *permissionsRepo) GetPermissionByID(ctx context.Context, id string) (domain.Permission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, section, subject, description FROM api_permissions WHERE id = ?`, id)
	return scanPermission(row)
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_permissions (id, section, subject, description) VALUES (?, ?, ?, ?)`,
		p.ID, p.Section, p.Subject, p.Description)
	return mapErr(err)
}

func (r *permissionsRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, section, subject, description FROM api_permissions ORDER BY section, subject`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, mapErr(rows.Err())
}
