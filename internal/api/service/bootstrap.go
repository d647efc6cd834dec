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

var ErrAlreadyBootstrapped = errors.New("system already bootstrapped")

// BootstrapService seeds an empty database with an initial user and a fully
// granted client token so the API is reachable after first startup.
type BootstrapService struct {
	Store store.Store

	Username string
	Fullname string
	Password string
}

// BootstrapResult carries the credentials created during bootstrap. The raw
// client token is only available here; it is stored hashed nowhere and shown
// once in the startup log.
type BootstrapResult struct {
	UserID      string
	ClientToken string
}

// IsBootstrapped reports whether the system already has users and clients.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	usersEmpty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	clientsEmpty, err := s.Store.ClientTokens().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !usersEmpty || !clientsEmpty, nil
}

// Bootstrap creates the initial user and client token, granting the client
// every permission in the catalog. It refuses to run twice.
func (s *BootstrapService) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	if done, err := s.IsBootstrapped(ctx); err != nil {
		return BootstrapResult{}, err
	} else if done {
		return BootstrapResult{}, ErrAlreadyBootstrapped
	}

	passHash, err := cryptox.HashPassword(s.Password)
	if err != nil {
		return BootstrapResult{}, err
	}

	rawToken, err := cryptox.GenerateAPIToken()
	if err != nil {
		return BootstrapResult{}, err
	}

	userID := idx.New().String()
	clientID := idx.New().String()
	now := time.Now().UTC()

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Users().CreateUser(ctx, domain.User{
			ID:           userID,
			Fullname:     s.Fullname,
			Username:     s.Username,
			PasswordHash: passHash,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		err = tx.ClientTokens().CreateClientToken(ctx, domain.ClientToken{
			ID:           clientID,
			Token:        rawToken,
			Enabled:      true,
			AppName:      "bootstrap",
			AppVersion:   "1",
			AppPublisher: "system",
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		perms, err := tx.Permissions().ListPermissions(ctx)
		if err != nil {
			return err
		}
		for _, p := range perms {
			err := tx.ClientPermissions().CreateClientGrant(ctx, domain.ClientPermission{
				ID:            idx.New().String(),
				ClientTokenID: clientID,
				PermissionID:  p.ID,
				Granted:       true,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error("bootstrap failed", "error", err)
		return BootstrapResult{}, err
	}

	l.Info("system bootstrapped", "user_id", userID, "client_token_id", clientID, "username", s.Username)
	return BootstrapResult{UserID: userID, ClientToken: rawToken}, nil
}
