package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAPIToken(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := GenerateAPIToken()
		require.NoError(t, err)
		require.Len(t, token, APITokenLength)
		for _, c := range token {
			require.Contains(t, tokenCharset, string(c))
		}

		_, dup := seen[token]
		require.False(t, dup, "tokens must not repeat")
		seen[token] = struct{}{}
	}
}

func TestGeneratePassword(t *testing.T) {
	t.Parallel()

	pw, err := GeneratePassword()
	require.NoError(t, err)
	require.Len(t, pw, 12)
}
