package rest

import (
	"context"
	"errors"

	"github.com/meapp/restapi/internal/api/apierr"
	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/service"
	"github.com/meapp/restapi/internal/api/store"
)

// AAAEndpoints registers the aaa group: credential exchange, user token
// lifecycle and user grant management.
type AAAEndpoints struct {
	Users *service.UserService
	AAA   *service.AAAService
}

func (e *AAAEndpoints) Register(r *Registry) {
	r.RegisterGroup("aaa", "Authentication, authorization and accounting")

	r.MustRegister(&Endpoint{
		Group:       "aaa",
		Name:        "retrieve_user_token_with_credentials",
		Description: "Retrieve a user token with username and password",
		Permissions: map[string]string{
			"POST": "aaa.retrieve_user_token_with_credentials",
		},
		UserTokenNeeded: false,
		Handler:         e.retrieveUserTokenWithCredentials,
	})

	r.MustRegister(&Endpoint{
		Group:       "aaa",
		Name:        "refresh_user_token",
		Description: "Extend the lifetime of the acting user token",
		Permissions: map[string]string{
			"POST": "aaa.refresh_user_token",
		},
		UserTokenNeeded: true,
		Handler:         e.refreshUserToken,
	})

	r.MustRegister(&Endpoint{
		Group:       "aaa",
		Name:        "user_tokens",
		Description: "List, update and revoke the user's own tokens",
		Permissions: map[string]string{
			"GET":    "aaa.list_user_tokens",
			"PATCH":  "aaa.update_user_token",
			"DELETE": "aaa.delete_user_token",
		},
		UserTokenNeeded: true,
		Handler:         e.userTokens,
	})

	r.MustRegister(&Endpoint{
		Group:       "aaa",
		Name:        "user_permissions",
		Description: "List and update the acting token's permission grants",
		Permissions: map[string]string{
			"GET":   "aaa.list_user_permissions",
			"PATCH": "aaa.update_user_permission",
		},
		UserTokenNeeded: true,
		Handler:         e.userPermissions,
	})
}

func (e *AAAEndpoints) retrieveUserTokenWithCredentials(ctx context.Context, req *Request) (*Response, error) {
	var body struct {
		Username     string  `json:"username"`
		Password     string  `json:"password"`
		SecondFactor *string `json:"2nd_factor"`
	}
	if err := req.DecodeJSON(&body); err != nil {
		return nil, err
	}
	if body.Username == "" {
		return nil, apierr.MissingField("username")
	}
	if body.Password == "" {
		return nil, apierr.MissingField("password")
	}

	user, err := e.Users.VerifyCredentials(ctx, body.Username, body.Password, body.SecondFactor)
	switch {
	case errors.Is(err, service.ErrBadCredentials):
		return nil, apierr.InvalidCredentials()
	case errors.Is(err, service.ErrSecondFactorRequired):
		// No token is minted; the client must retry with a TOTP code.
		return NewRecord(map[string]any{
			"_type":               "2nd_factor",
			"2nd_factor_required": true,
		}), nil
	case errors.Is(err, service.ErrSecondFactorInvalid):
		return nil, apierr.InvalidSecondFactor()
	case err != nil:
		return nil, err
	}

	token, err := e.AAA.MintUserToken(ctx, user, *req.Client)
	if err != nil {
		return nil, err
	}
	return NewRecord(SerializeUserToken(token)), nil
}

func (e *AAAEndpoints) refreshUserToken(ctx context.Context, req *Request) (*Response, error) {
	if err := e.AAA.RefreshUserToken(ctx, req.User.ID); err != nil {
		return nil, err
	}
	return NewDone(true), nil
}

func (e *AAAEndpoints) userTokens(ctx context.Context, req *Request) (*Response, error) {
	switch req.HTTP.Method {
	case "GET":
		tokens, err := e.AAA.ListUserTokens(ctx, req.User.UserID)
		if err != nil {
			return nil, err
		}
		return NewDataset(SerializeUserTokens(tokens)), nil

	case "PATCH":
		var body struct {
			ID          string  `json:"id"`
			Description *string `json:"description"`
			Enabled     *bool   `json:"enabled"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.ID == "" {
			return nil, apierr.MissingField("id")
		}

		err := e.AAA.UpdateUserToken(ctx, req.User.UserID, body.ID, body.Description, body.Enabled)
		if resp, handled := softTokenFailure(err); handled {
			return resp, nil
		}
		if err != nil {
			return nil, err
		}
		return NewDone(true), nil

	default: // DELETE, the method table does not allow anything else
		var body struct {
			ID string `json:"id"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.ID == "" {
			return nil, apierr.MissingField("id")
		}

		err := e.AAA.DeleteUserToken(ctx, req.User.UserID, body.ID)
		if resp, handled := softTokenFailure(err); handled {
			return resp, nil
		}
		if err != nil {
			return nil, err
		}
		return NewDone(true), nil
	}
}

// softTokenFailure maps expected token lookup failures onto a done=false
// response with a hint, keeping them out of the error taxonomy.
func softTokenFailure(err error) (*Response, bool) {
	switch {
	case errors.Is(err, service.ErrTokenNotFound):
		return NewDone(false).WithText("no user token with that id exists"), true
	case errors.Is(err, service.ErrTokenNotOwned):
		return NewDone(false).WithText("that user token belongs to another user"), true
	}
	return nil, false
}

func (e *AAAEndpoints) userPermissions(ctx context.Context, req *Request) (*Response, error) {
	switch req.HTTP.Method {
	case "GET":
		grants, err := e.AAA.ListUserGrants(ctx, req.User.ID)
		if err != nil {
			return nil, err
		}
		return NewDataset(SerializeGrantDetails(grants)), nil

	default: // PATCH
		var body struct {
			Permission string `json:"permission"`
			Granted    *bool  `json:"granted"`
		}
		if err := req.DecodeJSON(&body); err != nil {
			return nil, err
		}
		if body.Permission == "" {
			return nil, apierr.MissingField("permission")
		}
		if body.Granted == nil {
			return nil, apierr.MissingField("granted")
		}

		err := e.AAA.SetUserGrant(ctx, req.User.ID, body.Permission, *body.Granted)
		switch {
		case errors.Is(err, domain.ErrInvalidPermission):
			return nil, apierr.InvalidField("permission", "must be of the form section.subject")
		case errors.Is(err, service.ErrPermissionUnknown):
			return nil, apierr.EntityNotFound("permission", body.Permission)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, apierr.Conflict("user permission grant")
		case err != nil:
			return nil, err
		}
		return NewDone(true), nil
	}
}
