package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bsns-mcp/bsnsmcp-go/internal/oauth"
)

// TokenStore is a per-server view over the auth database implementing
// oauth.TokenStore. Records are keyed by the server's name and URL.
type TokenStore struct {
	db  *DB
	key string
}

// TokenStoreFor returns the store scoped to one upstream server.
func (s *DB) TokenStoreFor(serverName, serverURL string) *TokenStore {
	return &TokenStore{db: s, key: serverKey(serverName, serverURL)}
}

func (ts *TokenStore) GetTokens(_ context.Context) (*oauth.Token, error) {
	raw, err := ts.db.get(tokensBucket, ts.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	tok := &oauth.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}
	return tok, nil
}

func (ts *TokenStore) SetTokens(_ context.Context, token *oauth.Token) error {
	if token == nil {
		return ts.db.delete(tokensBucket, ts.key)
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return ts.db.put(tokensBucket, ts.key, raw)
}

func (ts *TokenStore) GetClientRegistration(_ context.Context) (*oauth.ClientRegistration, error) {
	raw, err := ts.db.get(registrationsBucket, ts.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	reg := &oauth.ClientRegistration{}
	if err := json.Unmarshal(raw, reg); err != nil {
		return nil, fmt.Errorf("decode stored registration: %w", err)
	}
	return reg, nil
}

func (ts *TokenStore) SetClientRegistration(_ context.Context, reg *oauth.ClientRegistration) error {
	if reg == nil {
		return ts.db.delete(registrationsBucket, ts.key)
	}
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}
	return ts.db.put(registrationsBucket, ts.key, raw)
}

// Clear removes both the token and the registration for this server.
func (ts *TokenStore) Clear(_ context.Context) error {
	if err := ts.db.delete(tokensBucket, ts.key); err != nil {
		return err
	}
	return ts.db.delete(registrationsBucket, ts.key)
}
