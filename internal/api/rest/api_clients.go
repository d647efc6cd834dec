package rest

import (
	"context"
	"errors"
	"time"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/service"
	"github.com/meapp/restapi/internal/api/store"
)

// ClientEndpoints registers the api_clients group: client token lifecycle
// and client grant management. All of these require a user token.
type ClientEndpoints struct {
	Clients *service.ClientService
}

func (e *ClientEndpoints) Register(r *Registry) {
	r.RegisterGroup("api_clients", "Client application management")

	r.MustRegister(&Endpoint{
		Group:       "api_clients",
		Name:        "client",
		Description: "Create, list and update client tokens",
		Permissions: map[string]string{
			"POST":  "api_clients.create_client_token",
			"GET":   "api_clients.retrieve_client_token",
			"PATCH": "api_clients.update_client_token",
		},
		UserTokenNeeded: true,
		Handler:         e.client,
	})

	r.MustRegister(&Endpoint{
		Group:       "api_clients",
		Name:        "client_permissions",
		Description: "List and update a client token's permission grants",
		Permissions: map[string]string{
			"GET":   "api_clients.list_client_permissions",
			"PATCH": "api_clients.update_client_permission",
		},
		UserTokenNeeded: true,
		Handler:         e.clientPermissions,
	})
}

func (e *ClientEndpoints) client(ctx context.Context, req *Request) (*Response, error) {
	switch req.HTTP.Method {
	case "POST":
		var body struct {
			AppName      string  `json:"app_name"`
			AppVersion   string  `json:"app_version"`
			AppPublisher string  `json:"app_publisher"`
			Expiration   *string `json:"expiration"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.AppName == "" {
			return nil, apierr.MissingField("app_name")
		}
		if body.AppVersion == "" {
			return nil, apierr.MissingField("app_version")
		}
		if body.AppPublisher == "" {
			return nil, apierr.MissingField("app_publisher")
		}

		expiresAt, err := parseOptionalTime(body.Expiration)
		if err != nil {
			return nil, err
		}

		token, err := e.Clients.CreateClientToken(ctx, body.AppName, body.AppVersion, body.AppPublisher, expiresAt)
		if errors.Is(err, service.ErrClientExists) {
			return NewDone(false).WithText("a client token for this app name and version already exists"), nil
		}
		if err != nil {
			return nil, err
		}
		return NewRecord(SerializeClientToken(token)), nil

	case "GET":
		tokens, err := e.Clients.ListClientTokens(ctx)
		if err != nil {
			return nil, err
		}
		return NewDataset(SerializeClientTokens(tokens)), nil

	default: // PATCH
		var body struct {
			ID              string  `json:"id"`
			Enabled         *bool   `json:"enabled"`
			Expiration      *string `json:"expiration"`
			ClearExpiration bool    `json:"clear_expiration"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.ID == "" {
			return nil, apierr.MissingField("id")
		}

		expiresAt, err := parseOptionalTime(body.Expiration)
		if err != nil {
			return nil, err
		}
		setExpiration := body.Expiration != nil || body.ClearExpiration

		err = e.Clients.UpdateClientToken(ctx, body.ID, body.Enabled, setExpiration, expiresAt)
		if errors.Is(err, service.ErrClientNotFound) {
			return NewDone(false).WithText("no client token with that id exists"), nil
		}
		if err != nil {
			return nil, err
		}
		return NewDone(true), nil
	}
}

func (e *ClientEndpoints) clientPermissions(ctx context.Context, req *Request) (*Response, error) {
	switch req.HTTP.Method {
	case "GET":
		id := req.Query("id")
		if id == "" {
			return nil, apierr.MissingField("id")
		}

		grants, err := e.Clients.ListClientGrants(ctx, id)
		if errors.Is(err, service.ErrClientNotFound) {
			return nil, apierr.EntityNotFound("client token", id)
		}
		if err != nil {
			return nil, err
		}
		return NewDataset(SerializeGrantDetails(grants)), nil

	default: // PATCH
		var body struct {
			ID         string `json:"id"`
			Permission string `json:"permission"`
			Granted    *bool  `json:"granted"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.ID == "" {
			return nil, apierr.MissingField("id")
		}
		if body.Permission == "" {
			return nil, apierr.MissingField("permission")
		}
		if body.Granted == nil {
			return nil, apierr.MissingField("granted")
		}

		err := e.Clients.SetClientGrant(ctx, body.ID, body.Permission, *body.Granted)
		switch {
		case errors.Is(err, domain.ErrInvalidPermission):
			return nil, apierr.InvalidField("permission", "must be of the form section.subject")
		case errors.Is(err, service.ErrPermissionUnknown):
			return nil, apierr.EntityNotFound("permission", body.Permission)
		case errors.Is(err, service.ErrClientNotFound):
			return nil, apierr.EntityNotFound("client token", body.ID)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, apierr.Conflict("client permission grant")
		case err != nil:
			return nil, err
		}
		return NewDone(true), nil
	}
}

// parseOptionalTime parses an expiration from the envelope datetime format.
func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, *s)
	if err != nil {
		return nil, apierr.InvalidField("expiration", "must be formatted as "+timeFormat)
	}
	t = t.UTC()
	return &t, nil
}
