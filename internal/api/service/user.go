package service

import (
	"context"
	"errors"

	"github.com/meapp/restapi/internal/api/domain"
	"github.com/meapp/restapi/internal/api/store"
	"github.com/meapp/restapi/pkg/cryptox"
	"github.com/meapp/restapi/pkg/slogx"

	"github.com/pquerna/otp/totp"
)

var (
	ErrBadCredentials       = errors.New("unknown user or wrong password")
	ErrSecondFactorRequired = errors.New("second factor required")
	ErrSecondFactorInvalid  = errors.New("second factor invalid")
)

type UserService struct {
	Store store.Store
}

// VerifyCredentials authenticates a username/password pair, demanding a TOTP
// code when the user has a second factor configured. Unknown users and wrong
// passwords are deliberately indistinguishable to the caller.
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string, secondFactor *string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrBadCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Warn("password verification failed", "username", username)
			return domain.User{}, ErrBadCredentials
		}
		return domain.User{}, err
	}

	if user.SecondFactorEnabled() {
		if secondFactor == nil {
			return domain.User{}, ErrSecondFactorRequired
		}
		if !totp.Validate(*secondFactor, *user.TOTPSecret) {
			l.Warn("second factor verification failed", "username", username)
			return domain.User{}, ErrSecondFactorInvalid
		}
	}

	return user, nil
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}
