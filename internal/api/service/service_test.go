package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store/drivers/sqlite"
	"github.com/meapp/restapi/pkg/cryptox"
	"github.com/meapp/restapi/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *sqlite.Store, username, password string, totpSecret *string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Fullname:     "Test " + username,
		Username:     username,
		PasswordHash: hash,
		TOTPSecret:   totpSecret,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedClient(t *testing.T, s *sqlite.Store) domain.ClientToken {
	t.Helper()

	raw, err := cryptox.GenerateAPIToken()
	require.NoError(t, err)

	ct := domain.ClientToken{
		ID:           idx.New().String(),
		Token:        raw,
		Enabled:      true,
		AppName:      "meapp",
		AppVersion:   idx.New().String(),
		AppPublisher: "MeApp",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.ClientTokens().CreateClientToken(context.Background(), ct))
	return ct
}

func seedPermission(t *testing.T, s *sqlite.Store, section, subject string) domain.Permission {
	t.Helper()

	p := domain.Permission{
		ID:          idx.New().String(),
		Section:     section,
		Subject:     subject,
		Description: "test permission",
	}
	require.NoError(t, s.Permissions().CreatePermission(context.Background(), p))
	return p
}

func seedClientGrant(t *testing.T, s *sqlite.Store, clientID, permID string, granted bool) {
	t.Helper()

	require.NoError(t, s.ClientPermissions().CreateClientGrant(context.Background(), domain.ClientPermission{
		ID:            idx.New().String(),
		ClientTokenID: clientID,
		PermissionID:  permID,
		Granted:       granted,
	}))
}
