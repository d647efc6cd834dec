package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// APITokenLength is the fixed length of opaque client and user token strings.
// Tokens are stored verbatim in the database and compared by equality, so the
// length is part of the wire contract.
const APITokenLength = 32

const tokenCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateAPIToken creates a cryptographically secure random token of
// APITokenLength characters drawn from lowercase letters and digits.
func GenerateAPIToken() (string, error) {
	token := make([]byte, APITokenLength)
	for i := range token {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random token: %w", err)
		}
		token[i] = tokenCharset[n.Int64()]
	}
	return string(token), nil
}

// GeneratePassword creates a random 12-character password for bootstrap users.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 12
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
