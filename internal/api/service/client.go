package service

import (
	"context"
	"errors"
	"time"

	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store"
	"github.com/meapp/restapi/pkg/cryptox"
	"github.com/meapp/restapi/pkg/idx"
	"github.com/meapp/restapi/pkg/slogx"
)

var (
	ErrClientNotFound = errors.New("client token not found")
	ErrClientExists   = errors.New("client token already exists for this app name and version")
)

// ClientService manages client tokens and their grants.
type ClientService struct {
	Store store.Store

	// Now is the service clock, replaceable in tests.
	Now func() time.Time
}

func (s *ClientService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateClientToken registers an application and mints its token. The
// (app name, app version) pair must be unique.
func (s *ClientService) CreateClientToken(ctx context.Context, appName, appVersion, appPublisher string, expiresAt *time.Time) (domain.ClientToken, error) {
	l := slogx.FromContext(ctx)

	raw, err := cryptox.GenerateAPIToken()
	if err != nil {
		return domain.ClientToken{}, err
	}

	token := domain.ClientToken{
		ID:           idx.New().String(),
		Token:        raw,
		Enabled:      true,
		ExpiresAt:    expiresAt,
		AppName:      appName,
		AppVersion:   appVersion,
		AppPublisher: appPublisher,
		CreatedAt:    s.now(),
	}

	if err := s.Store.ClientTokens().CreateClientToken(ctx, token); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.ClientToken{}, ErrClientExists
		}
		l.Error("failed to create client token", "app_name", appName, "error", err)
		return domain.ClientToken{}, err
	}

	l.Info("client token created", "token_id", token.ID, "app_name", appName, "app_version", appVersion)
	return token, nil
}

// ListClientTokens returns all registered client tokens.
func (s *ClientService) ListClientTokens(ctx context.Context) ([]domain.ClientToken, error) {
	return s.Store.ClientTokens().ListClientTokens(ctx)
}

// UpdateClientToken changes the enabled flag and/or expiration of a client
// token. Nil fields are left untouched; setExpiration distinguishes "do not
// touch" from "clear the expiration".
func (s *ClientService) UpdateClientToken(ctx context.Context, tokenID string, enabled *bool, setExpiration bool, expiresAt *time.Time) error {
	if _, err := s.Store.ClientTokens().GetClientTokenByID(ctx, tokenID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if enabled != nil {
			if err := tx.ClientTokens().SetClientTokenEnabled(ctx, tokenID, *enabled); err != nil {
				return err
			}
		}
		if setExpiration {
			if err := tx.ClientTokens().SetClientTokenExpiration(ctx, tokenID, expiresAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListClientGrants returns the grants of a client token joined with the
// permission catalog.
func (s *ClientService) ListClientGrants(ctx context.Context, clientTokenID string) ([]domain.GrantDetail, error) {
	if _, err := s.Store.ClientTokens().GetClientTokenByID(ctx, clientTokenID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return s.Store.ClientPermissions().ListClientGrantDetails(ctx, clientTokenID)
}

// SetClientGrant sets a grant on a client token, lazily creating the grant
// row on first use. Existing user tokens keep their snapshot of the old
// grants; only newly minted tokens see the change.
func (s *ClientService) SetClientGrant(ctx context.Context, clientTokenID, permission string, granted bool) error {
	section, subject, err := domain.ParsePermission(permission)
	if err != nil {
		return err
	}

	perm, err := s.Store.Permissions().GetPermission(ctx, section, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPermissionUnknown
		}
		return err
	}

	if _, err := s.Store.ClientTokens().GetClientTokenByID(ctx, clientTokenID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.ClientPermissions().GetClientGrant(ctx, clientTokenID, perm.ID)
		if errors.Is(err, store.ErrNotFound) {
			return tx.ClientPermissions().CreateClientGrant(ctx, domain.ClientPermission{
				ID:            idx.New().String(),
				ClientTokenID: clientTokenID,
				PermissionID:  perm.ID,
				Granted:       granted,
			})
		}
		if err != nil {
			return err
		}
		return tx.ClientPermissions().SetClientGrant(ctx, clientTokenID, perm.ID, granted)
	})
}
