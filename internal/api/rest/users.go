package rest

import (
	"context"

	"github.com/meapp/restapi/internal/api/service"
)

// UserEndpoints registers the users group.
type UserEndpoints struct {
	Users *service.UserService
}

func (e *UserEndpoints) Register(r *Registry) {
	r.RegisterGroup("users", "User management")

	r.MustRegister(&Endpoint{
		Group:       "users",
		Name:        "user",
		Description: "List users",
		Permissions: map[string]string{
			"GET": "users.retrieve",
		},
		UserTokenNeeded: true,
		Handler:         e.user,
	})
}

func (e *UserEndpoints) user(ctx context.Context, req *Request) (*Response, error) {
	users, err := e.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return NewDataset(SerializeUsers(users)), nil
}
