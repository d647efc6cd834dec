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
	ErrTokenNotFound     = errors.New("user token not found")
	ErrTokenNotOwned     = errors.New("user token belongs to another user")
	ErrPermissionUnknown = errors.New("permission does not exist")
)

// AAAService manages user tokens and their grants.
type AAAService struct {
	Store store.Store

	// TokenLifetime is how long a freshly minted or refreshed user token
	// stays valid. Zero or negative means tokens never expire.
	TokenLifetime time.Duration

	// Now is the service clock, replaceable in tests.
	Now func() time.Time
}

func (s *AAAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AAAService) expiration() *time.Time {
	if s.TokenLifetime <= 0 {
		return nil
	}
	t := s.now().Add(s.TokenLifetime)
	return &t
}

// MintUserToken creates a user token for the given user on behalf of the
// given client, copying the client's grants onto it. The copy is a snapshot;
// later changes to the client's grants do not propagate.
func (s *AAAService) MintUserToken(ctx context.Context, user domain.User, client domain.ClientToken) (domain.UserToken, error) {
	l := slogx.FromContext(ctx)

	raw, err := cryptox.GenerateAPIToken()
	if err != nil {
		return domain.UserToken{}, err
	}

	token := domain.UserToken{
		ID:            idx.New().String(),
		Token:         raw,
		UserID:        user.ID,
		ClientTokenID: client.ID,
		Enabled:       true,
		ExpiresAt:     s.expiration(),
		CreatedAt:     s.now(),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.UserTokens().CreateUserToken(ctx, token); err != nil {
			return err
		}

		grants, err := tx.ClientPermissions().ListClientGrants(ctx, client.ID)
		if err != nil {
			return err
		}
		for _, g := range grants {
			err := tx.UserPermissions().CreateUserGrant(ctx, domain.UserPermission{
				ID:           idx.New().String(),
				UserTokenID:  token.ID,
				PermissionID: g.PermissionID,
				Granted:      g.Granted,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error("failed to mint user token", "user_id", user.ID, "error", err)
		return domain.UserToken{}, err
	}

	l.Info("user token minted", "user_id", user.ID, "client_token_id", client.ID, "token_id", token.ID)
	return token, nil
}

// RefreshUserToken pushes the token's expiration forward by the configured
// lifetime, or clears it when no lifetime is configured.
func (s *AAAService) RefreshUserToken(ctx context.Context, tokenID string) error {
	return s.Store.UserTokens().SetUserTokenExpiration(ctx, tokenID, s.expiration())
}

// ListUserTokens returns every token of the given user, across all clients.
func (s *AAAService) ListUserTokens(ctx context.Context, userID string) ([]domain.UserToken, error) {
	return s.Store.UserTokens().ListUserTokensByUser(ctx, userID)
}

// UpdateUserToken changes the description and/or enabled flag of one of the
// user's own tokens. Nil fields are left untouched.
func (s *AAAService) UpdateUserToken(ctx context.Context, userID, tokenID string, description *string, enabled *bool) error {
	token, err := s.ownedToken(ctx, userID, tokenID)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if description != nil {
			if err := tx.UserTokens().UpdateUserTokenDescription(ctx, token.ID, description); err != nil {
				return err
			}
		}
		if enabled != nil {
			if err := tx.UserTokens().SetUserTokenEnabled(ctx, token.ID, *enabled); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteUserToken revokes one of the user's own tokens, removing its grant
// rows first so the foreign keys stay satisfied.
func (s *AAAService) DeleteUserToken(ctx context.Context, userID, tokenID string) error {
	l := slogx.FromContext(ctx)

	token, err := s.ownedToken(ctx, userID, tokenID)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.UserPermissions().DeleteUserGrantsForToken(ctx, token.ID); err != nil {
			return err
		}
		return tx.UserTokens().DeleteUserToken(ctx, token.ID)
	})
	if err != nil {
		l.Error("failed to delete user token", "token_id", token.ID, "error", err)
		return err
	}

	l.Info("user token deleted", "user_id", userID, "token_id", token.ID)
	return nil
}

// ListUserGrants returns the grants of a user token joined with the
// permission catalog.
func (s *AAAService) ListUserGrants(ctx context.Context, userTokenID string) ([]domain.GrantDetail, error) {
	return s.Store.UserPermissions().ListUserGrantDetails(ctx, userTokenID)
}

// SetUserGrant sets a grant on a user token, lazily creating the grant row
// on first use. A concurrent first write surfaces store.ErrAlreadyExists.
func (s *AAAService) SetUserGrant(ctx context.Context, userTokenID, permission string, granted bool) error {
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

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.UserPermissions().GetUserGrant(ctx, userTokenID, perm.ID)
		if errors.Is(err, store.ErrNotFound) {
			return tx.UserPermissions().CreateUserGrant(ctx, domain.UserPermission{
				ID:           idx.New().String(),
				UserTokenID:  userTokenID,
				PermissionID: perm.ID,
				Granted:      granted,
			})
		}
		if err != nil {
			return err
		}
		return tx.UserPermissions().SetUserGrant(ctx, userTokenID, perm.ID, granted)
	})
}

func (s *AAAService) ownedToken(ctx context.Context, userID, tokenID string) (domain.UserToken, error) {
	token, err := s.Store.UserTokens().GetUserTokenByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.UserToken{}, ErrTokenNotFound
		}
		return domain.UserToken{}, err
	}
	if token.UserID != userID {
		return domain.UserToken{}, ErrTokenNotOwned
	}
	return token, nil
}
