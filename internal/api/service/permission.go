package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store"
	"github.com/meapp/restapi/pkg/idx"
	"github.com/meapp/restapi/pkg/slogx"
)

// PermissionService keeps the permission catalog in sync with the
// permissions the registered endpoints declare.
type PermissionService struct {
	Store store.Store
}

// EnsureCatalog creates any catalog rows missing for the given permission
// strings. Existing rows are left untouched; the catalog is append-only.
func (s *PermissionService) EnsureCatalog(ctx context.Context, permissions []string) error {
	l := slogx.FromContext(ctx)

	var created int
	for _, p := range permissions {
		section, subject, err := domain.ParsePermission(p)
		if err != nil {
			return fmt.Errorf("permission catalog: %w", err)
		}

		_, err = s.Store.Permissions().GetPermission(ctx, section, subject)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		err = s.Store.Permissions().CreatePermission(ctx, domain.Permission{
			ID:          idx.New().String(),
			Section:     section,
			Subject:     subject,
			Description: "Permission " + p,
		})
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}
		created++
	}

	if created > 0 {
		l.Info("permission catalog updated", "created", created, "total", len(permissions))
	}
	return nil
}

// ListPermissions returns the full catalog.
func (s *PermissionService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListPermissions(ctx)
}
