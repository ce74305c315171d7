package oauth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS256ChallengeKnownVector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", S256Challenge(verifier))
}

func TestGenerateCodeVerifier(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		v, err := GenerateCodeVerifier()
		require.NoError(t, err)
		assert.Len(t, v, 128)
		for _, c := range v {
			assert.True(t, strings.ContainsRune(verifierCharset, c), "unexpected character %q", c)
		}
		assert.False(t, seen[v], "verifier repeated")
		seen[v] = true
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	// 32 bytes of entropy encode to 43 base64url characters.
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual("abc", "abc"))
	assert.False(t, ConstantTimeEqual("abc", "abd"))
	assert.False(t, ConstantTimeEqual("abc", "abcd"))
	assert.True(t, ConstantTimeEqual("", ""))
}
