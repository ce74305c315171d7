package oauth

import (
	"context"
	"sync"
	"time"
)

// Token is an OAuth access token with its associated refresh state.
// ExpiresAt is derived from expires_in at receipt time; a zero ExpiresAt
// means the server communicated no lifetime and the token never goes stale
// locally.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the token can still be presented to the server.
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(t.ExpiresAt)
}

// ClientMetadata describes this client to the authorization server,
// both for dynamic registration (RFC 7591) and for the authorization
// request itself.
type ClientMetadata struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// ClientRegistration is the identity issued by the server in response to a
// dynamic registration request.
type ClientRegistration struct {
	ClientID         string `json:"client_id"`
	ClientSecret     string `json:"client_secret,omitempty"`
	ClientIDIssuedAt int64  `json:"client_id_issued_at,omitempty"`
	ClientMetadata
}

// TokenStore persists tokens and client registrations between runs.
// Implementations return (nil, nil) when nothing is stored yet.
type TokenStore interface {
	GetTokens(ctx context.Context) (*Token, error)
	SetTokens(ctx context.Context, token *Token) error
	GetClientRegistration(ctx context.Context) (*ClientRegistration, error)
	SetClientRegistration(ctx context.Context, reg *ClientRegistration) error
}

// MemoryTokenStore keeps tokens in process memory. It is the default store
// when no persistent backend is configured.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *Token
	reg   *ClientRegistration
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) GetTokens(_ context.Context) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, nil
	}
	cp := *s.token
	return &cp, nil
}

func (s *MemoryTokenStore) SetTokens(_ context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == nil {
		s.token = nil
		return nil
	}
	cp := *token
	s.token = &cp
	return nil
}

func (s *MemoryTokenStore) GetClientRegistration(_ context.Context) (*ClientRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reg == nil {
		return nil, nil
	}
	cp := *s.reg
	return &cp, nil
}

func (s *MemoryTokenStore) SetClientRegistration(_ context.Context, reg *ClientRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg == nil {
		s.reg = nil
		return nil
	}
	cp := *reg
	s.reg = &cp
	return nil
}
