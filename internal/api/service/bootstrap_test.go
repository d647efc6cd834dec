package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/pkg/cryptox"
)

func TestEnsureCatalogIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	svc := &PermissionService{Store: s}
	ctx := context.Background()

	perms := []string{"users.retrieve", "aaa.refresh_user_token", "users.retrieve"}
	require.NoError(t, svc.EnsureCatalog(ctx, perms))
	require.NoError(t, svc.EnsureCatalog(ctx, perms))

	all, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestEnsureCatalogRejectsMalformedStrings(t *testing.T) {
	s := newTestStore(t)
	svc := &PermissionService{Store: s}

	err := svc.EnsureCatalog(context.Background(), []string{"not-a-permission"})
	require.Error(t, err)
}

func TestBootstrap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, (&PermissionService{Store: s}).EnsureCatalog(ctx,
		[]string{"users.retrieve", "aaa.refresh_user_token"}))

	svc := &BootstrapService{
		Store:    s,
		Username: "admin",
		Fullname: "Administrator",
		Password: "first-light",
	}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	result, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	require.Len(t, result.ClientToken, cryptox.APITokenLength)

	// The initial user can log in with the configured password.
	user, err := (&UserService{Store: s}).VerifyCredentials(ctx, "admin", "first-light", nil)
	require.NoError(t, err)
	require.Equal(t, result.UserID, user.ID)

	// The initial client token is granted the entire catalog.
	client, err := s.ClientTokens().GetClientTokenByToken(ctx, result.ClientToken)
	require.NoError(t, err)
	grants, err := s.ClientPermissions().ListClientGrantDetails(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	for _, g := range grants {
		require.True(t, g.Granted)
	}

	done, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, done)

	_, err = svc.Bootstrap(ctx)
	require.ErrorIs(t, err, ErrAlreadyBootstrapped)
}
