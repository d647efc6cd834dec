package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/pkg/cryptox"
)

func TestCreateClientToken(t *testing.T) {
	s := newTestStore(t)
	svc := &ClientService{Store: s}
	ctx := context.Background()

	token, err := svc.CreateClientToken(ctx, "meapp", "2.0", "MeApp", nil)
	require.NoError(t, err)
	require.Len(t, token.Token, cryptox.APITokenLength)
	require.True(t, token.Enabled)
	require.Nil(t, token.ExpiresAt)

	_, err = svc.CreateClientToken(ctx, "meapp", "2.0", "MeApp", nil)
	require.ErrorIs(t, err, ErrClientExists)

	// Another version of the same app is a different registration.
	_, err = svc.CreateClientToken(ctx, "meapp", "2.1", "MeApp", nil)
	require.NoError(t, err)
}

func TestUpdateClientToken(t *testing.T) {
	s := newTestStore(t)
	svc := &ClientService{Store: s}
	ctx := context.Background()

	client := seedClient(t, s)

	err := svc.UpdateClientToken(ctx, "no-such-id", nil, false, nil)
	require.ErrorIs(t, err, ErrClientNotFound)

	enabled := false
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, svc.UpdateClientToken(ctx, client.ID, &enabled, true, &exp))

	got, err := s.ClientTokens().GetClientTokenByID(ctx, client.ID)
	require.NoError(t, err)
	require.False(t, got.Enabled)
	require.NotNil(t, got.ExpiresAt)

	// setExpiration with a nil time clears the expiration.
	require.NoError(t, svc.UpdateClientToken(ctx, client.ID, nil, true, nil))
	got, err = s.ClientTokens().GetClientTokenByID(ctx, client.ID)
	require.NoError(t, err)
	require.Nil(t, got.ExpiresAt)
	require.False(t, got.Enabled, "enabled untouched when nil")
}

func TestSetClientGrant(t *testing.T) {
	s := newTestStore(t)
	svc := &ClientService{Store: s}
	ctx := context.Background()

	client := seedClient(t, s)
	perm := seedPermission(t, s, "aaa", "refresh_user_token")

	require.ErrorIs(t, svc.SetClientGrant(ctx, client.ID, "nodot", true), domain.ErrInvalidPermission)
	require.ErrorIs(t, svc.SetClientGrant(ctx, client.ID, "aaa.unknown", true), ErrPermissionUnknown)
	require.ErrorIs(t, svc.SetClientGrant(ctx, "no-such-id", "aaa.refresh_user_token", true), ErrClientNotFound)

	require.NoError(t, svc.SetClientGrant(ctx, client.ID, "aaa.refresh_user_token", true))
	grant, err := s.ClientPermissions().GetClientGrant(ctx, client.ID, perm.ID)
	require.NoError(t, err)
	require.True(t, grant.Granted)

	require.NoError(t, svc.SetClientGrant(ctx, client.ID, "aaa.refresh_user_token", false))
	grant, err = s.ClientPermissions().GetClientGrant(ctx, client.ID, perm.ID)
	require.NoError(t, err)
	require.False(t, grant.Granted)
}

func TestListClientGrants(t *testing.T) {
	s := newTestStore(t)
	svc := &ClientService{Store: s}
	ctx := context.Background()

	client := seedClient(t, s)
	perm := seedPermission(t, s, "users", "retrieve")
	seedClientGrant(t, s, client.ID, perm.ID, true)

	_, err := svc.ListClientGrants(ctx, "no-such-id")
	require.ErrorIs(t, err, ErrClientNotFound)

	grants, err := svc.ListClientGrants(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, "users", grants[0].Section)
	require.True(t, grants[0].Granted)
}
