package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportInjectsBearerToken(t *testing.T) {
	f := newFlowFixture(t, "", nil)
	require.NoError(t, f.store.SetTokens(context.Background(), &Token{
		AccessToken: "tok-1",
		TokenType:   "bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	client := &http.Client{Transport: &Transport{Provider: f.provider}}
	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-1", gotAuth, "token_type must be normalized")
}

func TestTransportInvalidatesOnUnauthorized(t *testing.T) {
	f := newFlowFixture(t, "", nil)
	require.NoError(t, f.store.SetTokens(context.Background(), &Token{
		AccessToken: "revoked",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	var seen []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "Bearer revoked" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer upstream.Close()

	client := &http.Client{Transport: &Transport{Provider: f.provider}}

	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the failing request is not retried")

	// The next request re-authenticates instead of reusing the rejected
	// token from the store.
	resp, err = client.Get(upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer revoked", seen[0])
	assert.Equal(t, "Bearer access-xyz", seen[1])
	assert.Equal(t, 1, f.redirects())
}

func TestTransportDoesNotMutateOriginalRequest(t *testing.T) {
	f := newFlowFixture(t, "", nil)
	require.NoError(t, f.store.SetTokens(context.Background(), &Token{
		AccessToken: "tok-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer upstream.Close()

	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	tr := &Transport{Provider: f.provider}
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
