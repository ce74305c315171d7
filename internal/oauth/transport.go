package oauth

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that attaches a bearer token to every
// request. On a 401 response the cached token is invalidated so the next
// request re-authenticates; the failing request is not retried.
type Transport struct {
	// Base performs the actual round trip. Defaults to
	// http.DefaultTransport.
	Base http.RoundTripper
	// Provider supplies and invalidates tokens. Required.
	Provider *Provider
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Provider == nil {
		return nil, fmt.Errorf("oauth: transport has no provider")
	}

	tok, err := t.Provider.EnsureToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("oauth: acquire token: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", bearerValue(tok))

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Provider.InvalidateTokens()
	}
	return resp, nil
}

func bearerValue(tok *Token) string {
	typ := tok.TokenType
	if typ == "" || typ == "bearer" {
		typ = "Bearer"
	}
	return typ + " " + tok.AccessToken
}
