package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SecretScheme is the fixed prefix of every API token secret. The auth guard
// uses it to tell opaque API tokens apart from JWT access tokens.
const SecretScheme = "pb_"

// PrefixLen is the length of the non-secret lookup prefix that follows the scheme.
const PrefixLen = 8

const secretEntropyBytes = 20

// GenerateSecret produces a high-entropy API token secret of the form
// pb_<8 hex prefix><40 hex random>. The prefix is stored in clear for display
// and lookup; the full secret is shown to the user exactly once.
func GenerateSecret() (secret, prefix string, err error) {
	buf := make([]byte, PrefixLen/2+secretEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := hex.EncodeToString(buf)
	prefix = raw[:PrefixLen]
	return SecretScheme + raw, prefix, nil
}

// HashSecret returns a salted bcrypt hash of the secret for storage.
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifySecret compares a presented secret against the stored hash.
// bcrypt's comparison is constant-time in the secret's content.
func VerifySecret(secret, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}

// IsAPIToken reports whether a bearer credential looks like an API token.
func IsAPIToken(bearer string) bool {
	return strings.HasPrefix(bearer, SecretScheme)
}

// HashToken returns the sha256 hex digest of a token string. Used for
// refresh tokens, where the random jti already provides the lookup key and
// bcrypt's cost would be wasted on every rotation.
func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// PrefixOf extracts the non-secret lookup prefix from a presented secret.
func PrefixOf(secret string) (string, bool) {
	if !IsAPIToken(secret) || len(secret) < len(SecretScheme)+PrefixLen {
		return "", false
	}
	return secret[len(SecretScheme) : len(SecretScheme)+PrefixLen], true
}
