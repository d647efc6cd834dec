package rest

import (
	"time"

	"github.com/meapp/restapi/internal/api/domain"
)

// Serialized entities use a stable flat shape with a _type discriminator.
// Sensitive columns (password hashes, TOTP secrets, the raw opaque token of
// other actors) never appear in a serialized map.

const timeFormat = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func strPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// SerializeUser omits the password hash and TOTP secret and adds the virtual
// second_factor_enabled field.
func SerializeUser(u domain.User) map[string]any {
	return map[string]any{
		"_type":                 "user",
		"id":                    u.ID,
		"fullname":              u.Fullname,
		"username":              u.Username,
		"second_factor_enabled": u.SecondFactorEnabled(),
		"created":               formatTime(u.CreatedAt),
	}
}

func SerializeClientToken(t domain.ClientToken) map[string]any {
	return map[string]any{
		"_type":         "client_token",
		"id":            t.ID,
		"token":         t.Token,
		"enabled":       t.Enabled,
		"expiration":    formatTimePtr(t.ExpiresAt),
		"app_name":      t.AppName,
		"app_version":   t.AppVersion,
		"app_publisher": t.AppPublisher,
		"created":       formatTime(t.CreatedAt),
	}
}

func SerializeUserToken(t domain.UserToken) map[string]any {
	return map[string]any{
		"_type":           "user_token",
		"id":              t.ID,
		"token":           t.Token,
		"user_id":         t.UserID,
		"client_token_id": t.ClientTokenID,
		"enabled":         t.Enabled,
		"expiration":      formatTimePtr(t.ExpiresAt),
		"description":     strPtr(t.Description),
		"created":         formatTime(t.CreatedAt),
	}
}

func SerializePermission(p domain.Permission) map[string]any {
	return map[string]any{
		"_type":       "permission",
		"id":          p.ID,
		"section":     p.Section,
		"subject":     p.Subject,
		"description": p.Description,
	}
}

// SerializeGrantDetail flattens a grant joined with its permission row.
func SerializeGrantDetail(g domain.GrantDetail) map[string]any {
	return map[string]any{
		"_type":       "grant",
		"permission":  g.Section + "." + g.Subject,
		"description": g.Description,
		"granted":     g.Granted,
	}
}

func SerializeUsers(users []domain.User) []map[string]any {
	out := make([]map[string]any, len(users))
	for i, u := range users {
		out[i] = SerializeUser(u)
	}
	return out
}

func SerializeClientTokens(tokens []domain.ClientToken) []map[string]any {
	out := make([]map[string]any, len(tokens))
	for i, t := range tokens {
		out[i] = SerializeClientToken(t)
	}
	return out
}

func SerializeUserTokens(tokens []domain.UserToken) []map[string]any {
	out := make([]map[string]any, len(tokens))
	for i, t := range tokens {
		out[i] = SerializeUserToken(t)
	}
	return out
}

func SerializeGrantDetails(grants []domain.GrantDetail) []map[string]any {
	out := make([]map[string]any, len(grants))
	for i, g := range grants {
		out[i] = SerializeGrantDetail(g)
	}
	return out
}
