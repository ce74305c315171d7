package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	wellKnownPath         = "/.well-known/oauth-authorization-server"
	protocolVersionHeader = "MCP-Protocol-Version"
	protocolVersion       = "2025-03-26"
)

// ServerMetadata is the RFC 8414 authorization server metadata subset the
// client acts on. Unknown fields are ignored.
type ServerMetadata struct {
	Issuer                        string   `json:"issuer,omitempty"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                 string   `json:"token_endpoint,omitempty"`
	RegistrationEndpoint          string   `json:"registration_endpoint,omitempty"`
	ScopesSupported               []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported        []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported           []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// authorizationEndpointOr returns the advertised authorization endpoint or
// the fallback path under authBase when metadata is absent or silent.
func (m *ServerMetadata) authorizationEndpointOr(authBase string) string {
	if m != nil && m.AuthorizationEndpoint != "" {
		return m.AuthorizationEndpoint
	}
	return authBase + "/authorize"
}

func (m *ServerMetadata) tokenEndpointOr(authBase string) string {
	if m != nil && m.TokenEndpoint != "" {
		return m.TokenEndpoint
	}
	return authBase + "/token"
}

func (m *ServerMetadata) registrationEndpointOr(authBase string) string {
	if m != nil && m.RegistrationEndpoint != "" {
		return m.RegistrationEndpoint
	}
	return authBase + "/register"
}

// AuthBaseURL reduces a server URL to its scheme and host, dropping path,
// query and fragment. Fallback endpoints and the metadata document hang off
// this origin.
func AuthBaseURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("server url %q has no scheme or host", serverURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// discoverServerMetadata fetches the well-known metadata document for the
// server origin. A 404 means the server publishes no metadata and is not an
// error. Any other failure is retried exactly once without the protocol
// version header, for servers whose CORS or header validation rejects it.
// When both attempts fail the client falls back to default endpoints, so the
// result is nil rather than an error.
func (p *Provider) discoverServerMetadata(ctx context.Context, authBase string) (*ServerMetadata, error) {
	metadataURL := authBase + wellKnownPath

	meta, notFound, err := p.fetchMetadata(ctx, metadataURL, true)
	if err == nil {
		return meta, nil
	}
	if notFound {
		p.logger.Debug("server publishes no authorization metadata", zap.String("url", metadataURL))
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.logger.Debug("metadata fetch failed, retrying without version header",
		zap.String("url", metadataURL), zap.Error(err))

	meta, notFound, err = p.fetchMetadata(ctx, metadataURL, false)
	if err == nil {
		return meta, nil
	}
	if notFound {
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.logger.Warn("authorization server metadata discovery failed, using default endpoints",
		zap.String("url", metadataURL), zap.Error(err))
	return nil, nil
}

func (p *Provider) fetchMetadata(ctx context.Context, metadataURL string, withVersion bool) (meta *ServerMetadata, notFound bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, false, err
	}
	if withVersion {
		req.Header.Set(protocolVersionHeader, protocolVersion)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, true, fmt.Errorf("metadata not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("metadata request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, false, fmt.Errorf("read metadata body: %w", err)
	}

	meta = &ServerMetadata{}
	if err := json.Unmarshal(body, meta); err != nil {
		return nil, false, fmt.Errorf("parse metadata: %w", err)
	}
	return meta, false, nil
}
