package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("${env:CLIENT_SECRET}")
	require.NoError(t, err)
	assert.Equal(t, "env", ref.Type)
	assert.Equal(t, "CLIENT_SECRET", ref.Name)
	assert.Equal(t, "${env:CLIENT_SECRET}", ref.Original)

	ref, err = ParseRef("${keyring:bsns-oauth}")
	require.NoError(t, err)
	assert.Equal(t, "keyring", ref.Type)
	assert.Equal(t, "bsns-oauth", ref.Name)

	_, err = ParseRef("plain-value")
	assert.Error(t, err)
	_, err = ParseRef("${malformed")
	assert.Error(t, err)
}

func TestIsRef(t *testing.T) {
	assert.True(t, IsRef("${env:FOO}"))
	assert.True(t, IsRef("prefix ${keyring:alias} suffix"))
	assert.False(t, IsRef("no refs here"))
	assert.False(t, IsRef("$ENV_VAR"))
	assert.False(t, IsRef("${notype}"))
}

func TestFindRefs(t *testing.T) {
	refs := FindRefs("a=${env:A} b=${keyring:b}")
	require.Len(t, refs, 2)
	assert.Equal(t, "A", refs[0].Name)
	assert.Equal(t, "keyring", refs[1].Type)
}
