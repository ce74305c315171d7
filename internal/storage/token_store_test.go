package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bsns-mcp/bsnsmcp-go/internal/oauth"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTokenStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ts := db.TokenStoreFor("bsns", "https://api.bsns.test/mcp")
	ctx := context.Background()

	tok, err := ts.GetTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok, "empty store returns nil, nil")

	want := &oauth.Token{
		AccessToken:  "access-1",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Scope:        "read",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, ts.SetTokens(ctx, want))

	got, err := ts.GetTokens(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRegistrationRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ts := db.TokenStoreFor("bsns", "https://api.bsns.test/mcp")
	ctx := context.Background()

	reg, err := ts.GetClientRegistration(ctx)
	require.NoError(t, err)
	assert.Nil(t, reg)

	want := &oauth.ClientRegistration{
		ClientID:     "client-9",
		ClientSecret: "sekret",
		ClientMetadata: oauth.ClientMetadata{
			ClientName:   "bsnsmcp",
			RedirectURIs: []string{"http://127.0.0.1:8976/oauth/callback"},
		},
	}
	require.NoError(t, ts.SetClientRegistration(ctx, want))

	got, err := ts.GetClientRegistration(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "client-9", got.ClientID)
	assert.Equal(t, want.RedirectURIs, got.RedirectURIs)
}

func TestServersAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := db.TokenStoreFor("bsns", "https://a.test/mcp")
	b := db.TokenStoreFor("bsns", "https://b.test/mcp")

	require.NoError(t, a.SetTokens(ctx, &oauth.Token{AccessToken: "for-a"}))

	got, err := b.GetTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "same name, different URL must not collide")
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	ts := db.TokenStoreFor("bsns", "https://api.bsns.test/mcp")
	ctx := context.Background()

	require.NoError(t, ts.SetTokens(ctx, &oauth.Token{AccessToken: "x"}))
	require.NoError(t, ts.SetClientRegistration(ctx, &oauth.ClientRegistration{ClientID: "c"}))
	require.NoError(t, ts.Clear(ctx))

	tok, err := ts.GetTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)
	reg, err := ts.GetClientRegistration(ctx)
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t).Sugar()
	ctx := context.Background()

	db, err := Open(dir, logger)
	require.NoError(t, err)
	require.NoError(t, db.TokenStoreFor("bsns", "https://a.test").SetTokens(ctx, &oauth.Token{AccessToken: "persisted"}))
	require.NoError(t, db.Close())

	db, err = Open(dir, logger)
	require.NoError(t, err)
	defer db.Close()

	tok, err := db.TokenStoreFor("bsns", "https://a.test").GetTokens(ctx)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "persisted", tok.AccessToken)
}
