package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret_Format(t *testing.T) {
	secret, prefix, err := GenerateSecret()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, SecretScheme))
	assert.Len(t, prefix, PrefixLen)
	// scheme + hex of (PrefixLen/2 + 20 entropy) bytes
	assert.Len(t, secret, len(SecretScheme)+PrefixLen+2*20)
	assert.Equal(t, SecretScheme+prefix, secret[:len(SecretScheme)+PrefixLen])
}

func TestGenerateSecret_Unique(t *testing.T) {
	a, _, err := GenerateSecret()
	require.NoError(t, err)
	b, _, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerifySecret(t *testing.T) {
	secret, _, err := GenerateSecret()
	require.NoError(t, err)

	hash, err := HashSecret(secret)
	require.NoError(t, err)
	assert.NotContains(t, hash, secret)

	assert.True(t, VerifySecret(secret, hash))
	assert.False(t, VerifySecret(secret+"x", hash))
	assert.False(t, VerifySecret("", hash))
}

func TestIsAPIToken(t *testing.T) {
	assert.True(t, IsAPIToken("pb_0123456789abcdef"))
	assert.False(t, IsAPIToken("eyJhbGciOiJIUzI1NiJ9.x.y"))
	assert.False(t, IsAPIToken(""))
}

func TestPrefixOf(t *testing.T) {
	secret, prefix, err := GenerateSecret()
	require.NoError(t, err)

	got, ok := PrefixOf(secret)
	assert.True(t, ok)
	assert.Equal(t, prefix, got)

	_, ok = PrefixOf("pb_short")
	assert.False(t, ok)
	_, ok = PrefixOf("not-a-token")
	assert.False(t, ok)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
