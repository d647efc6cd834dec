package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store/drivers/sqlite"
	"github.com/meapp/restapi/pkg/idx"
)

var testClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var testPipelineConfig = Config{
	BasePath:          "/api/v1",
	ClientTokenHeader: "X-Me-Client-Token",
	UserTokenHeader:   "X-Me-User-Token",
	ClientTokenQuery:  "client_token",
	UserTokenQuery:    "user_token",
	MaxItemsPerPage:   25,
}

// pipelineFixture is a seeded in-memory store with one user, one client
// token, one user token and the users.retrieve permission granted to both.
type pipelineFixture struct {
	store     *sqlite.Store
	pipeline  *Pipeline
	perm      domain.Permission
	client    domain.ClientToken
	user      domain.User
	userToken domain.UserToken
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctx := context.Background()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	f := &pipelineFixture{
		store: s,
		pipeline: &Pipeline{
			Store:  s,
			Config: testPipelineConfig,
			Now:    func() time.Time { return testClock },
		},
	}

	f.perm = domain.Permission{
		ID:      idx.New().String(),
		Section: "users",
		Subject: "retrieve",
	}
	require.NoError(t, s.Permissions().CreatePermission(ctx, f.perm))

	f.user = domain.User{
		ID:           idx.New().String(),
		Fullname:     "Ada Lovelace",
		Username:     "ada",
		PasswordHash: "x",
		CreatedAt:    testClock,
	}
	require.NoError(t, s.Users().CreateUser(ctx, f.user))

	f.client = domain.ClientToken{
		ID:           idx.New().String(),
		Token:        "clienttokenclienttokenclienttoke",
		Enabled:      true,
		AppName:      "meapp",
		AppVersion:   "1.0",
		AppPublisher: "MeApp",
		CreatedAt:    testClock,
	}
	require.NoError(t, s.ClientTokens().CreateClientToken(ctx, f.client))
	require.NoError(t, s.ClientPermissions().CreateClientGrant(ctx, domain.ClientPermission{
		ID:            idx.New().String(),
		ClientTokenID: f.client.ID,
		PermissionID:  f.perm.ID,
		Granted:       true,
	}))

	f.userToken = domain.UserToken{
		ID:            idx.New().String(),
		Token:         "usertokenusertokenusertokenusert",
		UserID:        f.user.ID,
		ClientTokenID: f.client.ID,
		Enabled:       true,
		CreatedAt:     testClock,
	}
	require.NoError(t, s.UserTokens().CreateUserToken(ctx, f.userToken))
	require.NoError(t, s.UserPermissions().CreateUserGrant(ctx, domain.UserPermission{
		ID:           idx.New().String(),
		UserTokenID:  f.userToken.ID,
		PermissionID: f.perm.ID,
		Granted:      true,
	}))

	return f
}

func (f *pipelineFixture) endpoint(userTokenNeeded bool) *Endpoint {
	return &Endpoint{
		Group:           "users",
		Name:            "user",
		Permissions:     map[string]string{"GET": "users.retrieve"},
		UserTokenNeeded: userTokenNeeded,
	}
}

func (f *pipelineFixture) request(t *testing.T, configure func(*http.Request)) *Request {
	t.Helper()
	r := httptest.NewRequest("GET", "/api/v1/users/user", nil)
	if configure != nil {
		configure(r)
	}
	return &Request{HTTP: r, Group: "users", Endpoint: "user", started: testClock}
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
}

func TestPipelineRejectsDoubledCredentials(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	t.Run("client token in header and query", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", f.client.Token)
			r.URL.RawQuery = "client_token=" + f.client.Token
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeTooManyClientTokens)
	})

	t.Run("user token in header and query", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-User-Token", f.userToken.Token)
			r.URL.RawQuery = "user_token=" + f.userToken.Token
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(true)), apierr.CodeTooManyUserTokens)
	})
}

func TestPipelineEnforcesEndpointPolicy(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	t.Run("user endpoint without user token", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", f.client.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(true)), apierr.CodeNoUserTokenGiven)
	})

	t.Run("user endpoint with both tokens", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", f.client.Token)
			r.Header.Set("X-Me-User-Token", f.userToken.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(true)), apierr.CodeNoUserTokenGiven)
	})

	t.Run("client endpoint with user token", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", f.client.Token)
			r.Header.Set("X-Me-User-Token", f.userToken.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeNoClientTokenGiven)
	})

	t.Run("client endpoint with no tokens", func(t *testing.T) {
		req := f.request(t, nil)
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeNoClientTokenGiven)
	})
}

func TestPipelineAuthenticatesClientTokens(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	withClient := func(token string) *Request {
		return f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", token)
		})
	}

	t.Run("unknown token", func(t *testing.T) {
		requireCode(t, f.pipeline.Run(ctx, withClient("nosuchtoken"), f.endpoint(false)),
			apierr.CodeNoValidClientToken)
	})

	t.Run("disabled wins over expired", func(t *testing.T) {
		expired := testClock.Add(-time.Hour)
		require.NoError(t, f.store.ClientTokens().SetClientTokenEnabled(ctx, f.client.ID, false))
		require.NoError(t, f.store.ClientTokens().SetClientTokenExpiration(ctx, f.client.ID, &expired))

		requireCode(t, f.pipeline.Run(ctx, withClient(f.client.Token), f.endpoint(false)),
			apierr.CodeDisabledClientToken)

		require.NoError(t, f.store.ClientTokens().SetClientTokenEnabled(ctx, f.client.ID, true))
		requireCode(t, f.pipeline.Run(ctx, withClient(f.client.Token), f.endpoint(false)),
			apierr.CodeExpiredClientToken)
	})

	t.Run("expiration equal to now is still valid", func(t *testing.T) {
		boundary := testClock
		require.NoError(t, f.store.ClientTokens().SetClientTokenExpiration(ctx, f.client.ID, &boundary))

		req := withClient(f.client.Token)
		require.NoError(t, f.pipeline.Run(ctx, req, f.endpoint(false)))
		require.Equal(t, f.client.ID, req.Client.ID)
		require.Nil(t, req.User)
	})
}

func TestPipelineAuthenticatesUserTokens(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	withUser := func(token string) *Request {
		return f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-User-Token", token)
		})
	}

	t.Run("unknown token", func(t *testing.T) {
		requireCode(t, f.pipeline.Run(ctx, withUser("nosuchtoken"), f.endpoint(true)),
			apierr.CodeNoValidUserToken)
	})

	t.Run("disabled", func(t *testing.T) {
		require.NoError(t, f.store.UserTokens().SetUserTokenEnabled(ctx, f.userToken.ID, false))
		requireCode(t, f.pipeline.Run(ctx, withUser(f.userToken.Token), f.endpoint(true)),
			apierr.CodeDisabledUserToken)
		require.NoError(t, f.store.UserTokens().SetUserTokenEnabled(ctx, f.userToken.ID, true))
	})

	t.Run("expired", func(t *testing.T) {
		expired := testClock.Add(-time.Second)
		require.NoError(t, f.store.UserTokens().SetUserTokenExpiration(ctx, f.userToken.ID, &expired))
		requireCode(t, f.pipeline.Run(ctx, withUser(f.userToken.Token), f.endpoint(true)),
			apierr.CodeExpiredUserToken)
	})

	t.Run("disabled issuing client invalidates the user token", func(t *testing.T) {
		future := testClock.Add(time.Hour)
		require.NoError(t, f.store.UserTokens().SetUserTokenExpiration(ctx, f.userToken.ID, &future))

		require.NoError(t, f.store.ClientTokens().SetClientTokenEnabled(ctx, f.client.ID, false))
		requireCode(t, f.pipeline.Run(ctx, withUser(f.userToken.Token), f.endpoint(true)),
			apierr.CodeDisabledClientToken)
		require.NoError(t, f.store.ClientTokens().SetClientTokenEnabled(ctx, f.client.ID, true))
	})

	t.Run("expired issuing client invalidates the user token", func(t *testing.T) {
		expired := testClock.Add(-time.Minute)
		require.NoError(t, f.store.ClientTokens().SetClientTokenExpiration(ctx, f.client.ID, &expired))
		requireCode(t, f.pipeline.Run(ctx, withUser(f.userToken.Token), f.endpoint(true)),
			apierr.CodeExpiredClientToken)
		require.NoError(t, f.store.ClientTokens().SetClientTokenExpiration(ctx, f.client.ID, nil))
	})

	t.Run("valid token derives the issuing client", func(t *testing.T) {
		boundary := testClock // expiring exactly now is still valid
		require.NoError(t, f.store.UserTokens().SetUserTokenExpiration(ctx, f.userToken.ID, &boundary))

		req := withUser(f.userToken.Token)
		require.NoError(t, f.pipeline.Run(ctx, req, f.endpoint(true)))
		require.NotNil(t, req.User)
		require.Equal(t, f.userToken.ID, req.User.ID)
		require.Equal(t, f.client.ID, req.Client.ID)
	})
}

func TestPipelineAuthorization(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	t.Run("method not in permission table", func(t *testing.T) {
		req := f.request(t, func(r *http.Request) {
			r.Method = "PUT"
			r.Header.Set("X-Me-Client-Token", f.client.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeMethodNotAllowed)
	})

	t.Run("user grant required independently of client grant", func(t *testing.T) {
		require.NoError(t, f.store.UserPermissions().SetUserGrant(ctx, f.userToken.ID, f.perm.ID, false))

		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-User-Token", f.userToken.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(true)), apierr.CodeUserNotAuthorized)

		require.NoError(t, f.store.UserPermissions().SetUserGrant(ctx, f.userToken.ID, f.perm.ID, true))
	})

	t.Run("client grant revoked", func(t *testing.T) {
		require.NoError(t, f.store.ClientPermissions().SetClientGrant(ctx, f.client.ID, f.perm.ID, false))

		req := f.request(t, func(r *http.Request) {
			r.Header.Set("X-Me-Client-Token", f.client.Token)
		})
		requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeClientNotAuthorized)
	})
}

func TestPipelineAccounting(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	req := f.request(t, func(r *http.Request) {
		r.Header.Set("X-Me-User-Token", f.userToken.Token)
		r.RemoteAddr = "203.0.113.9:4711"
	})
	require.NoError(t, f.pipeline.Run(ctx, req, f.endpoint(true)))

	clientEntries, err := f.store.ClientLog().ListClientLogEntries(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, clientEntries, 1)
	require.Equal(t, "203.0.113.9", clientEntries[0].RemoteAddr)
	require.Equal(t, "GET", clientEntries[0].Method)
	require.Equal(t, "users", clientEntries[0].APIGroup)
	require.Equal(t, "user", clientEntries[0].APIEndpoint)
	require.Equal(t, f.perm.ID, clientEntries[0].PermissionID)

	userEntries, err := f.store.UserLog().ListUserLogEntries(ctx, f.userToken.ID)
	require.NoError(t, err)
	require.Len(t, userEntries, 1)
	require.Equal(t, f.perm.ID, userEntries[0].PermissionID)
}

func TestPipelineDeniedCallsAreNotAccounted(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.ClientPermissions().SetClientGrant(ctx, f.client.ID, f.perm.ID, false))

	req := f.request(t, func(r *http.Request) {
		r.Header.Set("X-Me-Client-Token", f.client.Token)
	})
	requireCode(t, f.pipeline.Run(ctx, req, f.endpoint(false)), apierr.CodeClientNotAuthorized)

	entries, err := f.store.ClientLog().ListClientLogEntries(ctx, f.client.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}
