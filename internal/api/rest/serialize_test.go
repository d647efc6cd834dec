package rest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meapp/restapi/internal/api/domain"
)

func TestSerializeUserOmitsSensitiveFields(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	u := domain.User{
		ID:           "01HUSER",
		Fullname:     "Ada Lovelace",
		Username:     "ada",
		PasswordHash: "$argon2id$...",
		TOTPSecret:   &secret,
		CreatedAt:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	m := SerializeUser(u)
	require.Equal(t, "user", m["_type"])
	require.Equal(t, true, m["second_factor_enabled"])
	require.Equal(t, "2024-05-01 09:30:00", m["created"])
	require.NotContains(t, m, "password_hash")
	require.NotContains(t, m, "totp_secret")

	u.TOTPSecret = nil
	require.Equal(t, false, SerializeUser(u)["second_factor_enabled"])
}

func TestSerializeClientToken(t *testing.T) {
	exp := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ct := domain.ClientToken{
		ID:           "01HCLIENT",
		Token:        "abcdefghijklmnopqrstuvwxyz012345",
		Enabled:      true,
		ExpiresAt:    &exp,
		AppName:      "meapp",
		AppVersion:   "1.0",
		AppPublisher: "MeApp",
		CreatedAt:    time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	m := SerializeClientToken(ct)
	require.Equal(t, "client_token", m["_type"])
	require.Equal(t, "2024-06-01 00:00:00", m["expiration"])
	require.Equal(t, "meapp", m["app_name"])

	ct.ExpiresAt = nil
	require.Nil(t, SerializeClientToken(ct)["expiration"])
}

func TestSerializeUserToken(t *testing.T) {
	desc := "phone app"
	ut := domain.UserToken{
		ID:            "01HTOKEN",
		Token:         "abcdefghijklmnopqrstuvwxyz543210",
		UserID:        "01HUSER",
		ClientTokenID: "01HCLIENT",
		Enabled:       true,
		Description:   &desc,
		CreatedAt:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	m := SerializeUserToken(ut)
	require.Equal(t, "user_token", m["_type"])
	require.Equal(t, "phone app", m["description"])
	require.Nil(t, m["expiration"])

	ut.Description = nil
	require.Nil(t, SerializeUserToken(ut)["description"])
}

func TestSerializeGrantDetail(t *testing.T) {
	m := SerializeGrantDetail(domain.GrantDetail{
		Section:     "aaa",
		Subject:     "refresh_user_token",
		Description: "Refresh a user token",
		Granted:     true,
	})

	require.Equal(t, "grant", m["_type"])
	require.Equal(t, "aaa.refresh_user_token", m["permission"])
	require.Equal(t, true, m["granted"])
}

func TestSerializeSliceHelpers(t *testing.T) {
	users := SerializeUsers([]domain.User{{ID: "a"}, {ID: "b"}})
	require.Len(t, users, 2)
	require.Equal(t, "a", users[0]["id"])

	require.Empty(t, SerializeUserTokens(nil))
	require.Empty(t, SerializeClientTokens(nil))
	require.Empty(t, SerializeGrantDetails(nil))
}
