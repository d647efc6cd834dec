package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store"
	"github.com/meapp/restapi/pkg/httpx"
	"github.com/meapp/restapi/pkg/idx"
)

// Config holds the dispatcher and pipeline settings: where the API is
// mounted and how callers present their credentials.
type Config struct {
	BasePath string

	ClientTokenHeader string
	UserTokenHeader   string
	ClientTokenQuery  string
	UserTokenQuery    string

	MaxItemsPerPage int
	ShowExceptions  bool
}

// Pipeline runs the AAA segment of every request: credential extraction,
// authentication, authorization and accounting, in that order, inside one
// transaction that commits before the handler runs.
type Pipeline struct {
	Store  store.Store
	Config Config

	// Now is the pipeline clock, replaceable in tests.
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// Run establishes the caller's identity on req and records the accounting
// entries. On return with nil error the AAA transaction has committed and
// req.Client (and req.User, for user-token calls) are populated.
func (p *Pipeline) Run(ctx context.Context, req *Request, ep *Endpoint) error {
	clientTok, userTok, err := p.extractCredentials(req.HTTP, ep)
	if err != nil {
		return err
	}

	return p.Store.WithTx(ctx, func(tx store.Tx) error {
		client, user, err := p.authenticate(ctx, tx, clientTok, userTok)
		if err != nil {
			return err
		}

		perm, err := p.authorize(ctx, tx, ep, req.HTTP.Method, client, user)
		if err != nil {
			return err
		}

		if err := p.account(ctx, tx, req, client, user, perm); err != nil {
			return err
		}

		req.Client = client
		req.User = user
		return nil
	})
}

// extractCredentials reads both token kinds from header and query string.
// Supplying the same kind twice is rejected, and the endpoint policy demands
// exactly one kind: a user token for user endpoints, a client token otherwise.
func (p *Pipeline) extractCredentials(r *http.Request, ep *Endpoint) (clientTok, userTok string, err error) {
	cfg := p.Config
	query := r.URL.Query()

	headerClient := r.Header.Get(cfg.ClientTokenHeader)
	queryClient := query.Get(cfg.ClientTokenQuery)
	if headerClient != "" && queryClient != "" {
		return "", "", apierr.TooManyClientTokens()
	}
	clientTok = headerClient
	if clientTok == "" {
		clientTok = queryClient
	}

	headerUser := r.Header.Get(cfg.UserTokenHeader)
	queryUser := query.Get(cfg.UserTokenQuery)
	if headerUser != "" && queryUser != "" {
		return "", "", apierr.TooManyUserTokens()
	}
	userTok = headerUser
	if userTok == "" {
		userTok = queryUser
	}

	if ep.UserTokenNeeded {
		if userTok == "" || clientTok != "" {
			return "", "", apierr.NoUserTokenGiven()
		}
	} else {
		if clientTok == "" || userTok != "" {
			return "", "", apierr.NoClientTokenGiven()
		}
	}
	return clientTok, userTok, nil
}

// authenticate resolves the supplied token to stored identities. The checks
// run in a fixed order so a disabled token is never reported as expired. A
// token whose expiration equals the current instant is still valid.
func (p *Pipeline) authenticate(ctx context.Context, tx store.Tx, clientTok, userTok string) (*domain.ClientToken, *domain.UserToken, error) {
	now := p.now()

	if userTok != "" {
		user, err := tx.UserTokens().GetUserTokenByToken(ctx, userTok)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, apierr.NoValidUserToken()
			}
			return nil, nil, apierr.Storage(err)
		}
		if !user.Enabled {
			return nil, nil, apierr.DisabledUserToken()
		}
		if user.Expired(now) {
			return nil, nil, apierr.ExpiredUserToken()
		}

		// The acting client is the one that minted the user token. It goes
		// through the same checks, so disabling or expiring a client also
		// cuts off the user tokens it issued.
		client, err := tx.ClientTokens().GetClientTokenByID(ctx, user.ClientTokenID)
		if err != nil {
			return nil, nil, apierr.Storage(err)
		}
		if !client.Enabled {
			return nil, nil, apierr.DisabledClientToken()
		}
		if client.Expired(now) {
			return nil, nil, apierr.ExpiredClientToken()
		}
		return &client, &user, nil
	}

	client, err := tx.ClientTokens().GetClientTokenByToken(ctx, clientTok)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apierr.NoValidClientToken()
		}
		return nil, nil, apierr.Storage(err)
	}
	if !client.Enabled {
		return nil, nil, apierr.DisabledClientToken()
	}
	if client.Expired(now) {
		return nil, nil, apierr.ExpiredClientToken()
	}
	return &client, nil, nil
}

// authorize checks the method against the endpoint's permission table and
// requires a positive grant from the client, plus one from the user token
// when the call carries one. The two grant checks are independent.
func (p *Pipeline) authorize(ctx context.Context, tx store.Tx, ep *Endpoint, method string, client *domain.ClientToken, user *domain.UserToken) (domain.Permission, error) {
	permStr, ok := ep.Permissions[method]
	if !ok {
		return domain.Permission{}, apierr.MethodNotAllowed(method)
	}

	section, subject, err := domain.ParsePermission(permStr)
	if err != nil {
		return domain.Permission{}, apierr.PermissionInvalid(permStr)
	}

	perm, err := tx.Permissions().GetPermission(ctx, section, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The catalog is seeded from the registry at startup, so a
			// missing row means a misconfigured deployment.
			return domain.Permission{}, apierr.PermissionInvalid(permStr)
		}
		return domain.Permission{}, apierr.Storage(err)
	}

	clientGrant, err := tx.ClientPermissions().GetClientGrant(ctx, client.ID, perm.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.Permission{}, apierr.Storage(err)
	}
	if err != nil || !clientGrant.Granted {
		return domain.Permission{}, apierr.ClientNotAuthorized(permStr)
	}

	if user != nil {
		userGrant, err := tx.UserPermissions().GetUserGrant(ctx, user.ID, perm.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Permission{}, apierr.Storage(err)
		}
		if err != nil || !userGrant.Granted {
			return domain.Permission{}, apierr.UserNotAuthorized(permStr)
		}
	}
	return perm, nil
}

// account writes the audit rows for an authorized call. These share the AAA
// transaction, so an authorized call is never left unaccounted.
func (p *Pipeline) account(ctx context.Context, tx store.Tx, req *Request, client *domain.ClientToken, user *domain.UserToken, perm domain.Permission) error {
	now := p.now()

	err := tx.ClientLog().InsertClientLogEntry(ctx, domain.ClientLogEntry{
		ID:            idx.New().String(),
		LoggedAt:      now,
		RemoteAddr:    httpx.IPKeyExtractor(req.HTTP),
		ClientTokenID: client.ID,
		Method:        req.HTTP.Method,
		APIGroup:      req.Group,
		APIEndpoint:   req.Endpoint,
		PermissionID:  perm.ID,
	})
	if err != nil {
		return apierr.Accounting(err)
	}

	if user != nil {
		err := tx.UserLog().InsertUserLogEntry(ctx, domain.UserLogEntry{
			ID:           idx.New().String(),
			LoggedAt:     now,
			UserTokenID:  user.ID,
			Method:       req.HTTP.Method,
			APIGroup:     req.Group,
			APIEndpoint:  req.Endpoint,
			PermissionID: perm.ID,
		})
		if err != nil {
			return apierr.Accounting(err)
		}
	}
	return nil
}
