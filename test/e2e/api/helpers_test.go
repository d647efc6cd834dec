package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/internal/api/rest"
	"github.com/meapp/restapi/internal/api/service"
	"github.com/meapp/restapi/internal/api/store/drivers/sqlite"
	"github.com/meapp/restapi/pkg/httpx"
	"github.com/meapp/restapi/pkg/slogx"
)

/*
 * Common constants and helper functions for API end-to-end tests. The full
 * stack runs in-process: an httptest server in front of the dispatcher, the
 * AAA pipeline and an in-memory SQLite store.
 */

const (
	adminUsername = "admin"
	adminFullname = "Administrator"
	adminPassword = "Admin123!"

	clientTokenHeader = "X-Me-Client-Token"
	userTokenHeader   = "X-Me-User-Token"
)

// testAPI bundles the running server with the handles tests need to seed
// data and make authenticated calls.
type testAPI struct {
	server *httptest.Server
	store  *sqlite.Store

	// bootstrapToken is the all-granted client token created on first start.
	bootstrapToken string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	cfg := rest.Config{
		BasePath:          "/api/v1",
		ClientTokenHeader: clientTokenHeader,
		UserTokenHeader:   userTokenHeader,
		ClientTokenQuery:  "client_token",
		UserTokenQuery:    "user_token",
		MaxItemsPerPage:   25,
	}

	userService := &service.UserService{Store: st}
	aaaService := &service.AAAService{Store: st, TokenLifetime: time.Hour}
	clientService := &service.ClientService{Store: st}

	registry := rest.NewRegistry()
	(&rest.AAAEndpoints{Users: userService, AAA: aaaService}).Register(registry)
	(&rest.ClientEndpoints{Clients: clientService}).Register(registry)
	(&rest.UserEndpoints{Users: userService}).Register(registry)
	(&rest.SystemEndpoints{
		Environment: "test",
		Version:     "test",
		StartedAt:   time.Now().UTC(),
		DBStats:     st.Stats,
	}).Register(registry)

	require.NoError(t,
		(&service.PermissionService{Store: st}).EnsureCatalog(ctx, registry.Permissions()))

	bootstrap := &service.BootstrapService{
		Store:    st,
		Username: adminUsername,
		Fullname: adminFullname,
		Password: adminPassword,
	}
	result, err := bootstrap.Bootstrap(ctx)
	require.NoError(t, err)

	dispatcher := &rest.Dispatcher{
		Registry: registry,
		Pipeline: &rest.Pipeline{Store: st, Config: cfg},
		Config:   cfg,
	}

	logger := slogx.New(slogx.Config{Service: "api-test", Level: "error", Format: "text"})
	server := httptest.NewServer(httpx.Chain(dispatcher, slogx.HTTPMiddleware(logger)))
	t.Cleanup(server.Close)

	return &testAPI{
		server:         server,
		store:          st,
		bootstrapToken: result.ClientToken,
	}
}

// call performs one API request and decodes the JSON envelope. Headers may
// be nil; body may be nil for body-less requests.
func (a *testAPI) call(t *testing.T, method, path string, headers map[string]string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+"/api/v1/"+path, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func asClient(token string) map[string]string {
	return map[string]string{clientTokenHeader: token}
}

func asUser(token string) map[string]string {
	return map[string]string{userTokenHeader: token}
}

// retrieveUserToken exchanges the admin credentials for a user token.
func (a *testAPI) retrieveUserToken(t *testing.T) string {
	t.Helper()

	status, envelope := a.call(t, "POST", "aaa/retrieve_user_token_with_credentials",
		asClient(a.bootstrapToken),
		map[string]any{"username": adminUsername, "password": adminPassword})
	require.Equal(t, http.StatusOK, status)

	object := envelope["object"].(map[string]any)
	require.Equal(t, "user_token", object["_type"])
	return object["token"].(string)
}

func datasetData(t *testing.T, envelope map[string]any) []any {
	t.Helper()
	require.Contains(t, envelope, "dataset")
	return envelope["dataset"].(map[string]any)["data"].([]any)
}

func errorCode(t *testing.T, envelope map[string]any) int {
	t.Helper()
	require.Contains(t, envelope, "error")
	return int(envelope["error"].(map[string]any)["code"].(float64))
}
