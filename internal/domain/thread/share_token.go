package thread

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// ShareTokenLength gives ~131 bits of entropy in base62, enough that
	// tokens are unguessable without a uniqueness check in the hot path.
	ShareTokenLength = 22

	base62Charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// GenerateShareToken returns a cryptographically random base62 token for
// share URLs.
func GenerateShareToken() (string, error) {
	charsetLen := big.NewInt(int64(len(base62Charset)))
	result := make([]byte, ShareTokenLength)

	for i := 0; i < ShareTokenLength; i++ {
		randomIndex, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = base62Charset[randomIndex.Int64()]
	}

	return string(result), nil
}

// ValidateShareToken checks token shape before hitting the database.
func ValidateShareToken(token string) bool {
	if len(token) != ShareTokenLength {
		return false
	}
	for _, c := range token {
		if !isBase62Char(c) {
			return false
		}
	}
	return true
}

func isBase62Char(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
