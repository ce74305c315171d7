package oauth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCallbackServerDeliversCodeAndState(t *testing.T) {
	s, err := StartCallbackServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	uri := s.RedirectURI()
	assert.True(t, strings.HasPrefix(uri, "http://127.0.0.1:"))
	assert.True(t, strings.HasSuffix(uri, callbackPath))

	resp, err := http.Get(uri + "?code=abc&state=xyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, state, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
	assert.Equal(t, "xyz", state)
}

func TestCallbackServerReportsOAuthError(t *testing.T) {
	s, err := StartCallbackServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	resp, err := http.Get(s.RedirectURI() + "?error=access_denied&error_description=user+declined")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, _, err = s.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "user declined")
}

func TestCallbackServerAwaitHonorsContext(t *testing.T) {
	s, err := StartCallbackServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = s.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallbackServerIgnoresDuplicateCallbacks(t *testing.T) {
	s, err := StartCallbackServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(s.RedirectURI() + "?code=first&state=s1")
		require.NoError(t, err)
		resp.Body.Close()
	}

	code, _, err := s.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}
