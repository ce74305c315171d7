package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bsns-mcp/bsnsmcp-go/internal/config"
	"github.com/bsns-mcp/bsnsmcp-go/internal/logs"
	"github.com/bsns-mcp/bsnsmcp-go/internal/oauth"
	"github.com/bsns-mcp/bsnsmcp-go/internal/secret"
	"github.com/bsns-mcp/bsnsmcp-go/internal/storage"
	"github.com/bsns-mcp/bsnsmcp-go/internal/upstream"
)

// setup loads the configuration and builds the command logger. The serve
// command logs at info by default, one-shot commands at warn.
func setup(serverCommand bool) (*config.Config, *zap.Logger, error) {
	logger, err := logs.SetupCommandLogger(serverCommand, logLevel, logToFile, logDir)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openUpstream builds the upstream MCP client with its persistent token
// store. The caller owns both returned closables.
func openUpstream(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*upstream.Client, *storage.DB, error) {
	if cfg.Upstream == nil {
		return nil, nil, fmt.Errorf("no upstream configured, set upstream.url or pass --upstream-url")
	}

	if err := resolveSecrets(ctx, cfg.Upstream.OAuth); err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(cfg.DataDir, logger.Named("storage").Sugar())
	if err != nil {
		return nil, nil, err
	}

	var store oauth.TokenStore
	if cfg.Upstream.OAuth != nil {
		tokenStore := db.TokenStoreFor(cfg.Upstream.Name, cfg.Upstream.URL)
		store = tokenStore

		// Pre-registered credentials bypass dynamic registration.
		if cfg.Upstream.OAuth.ClientID != "" {
			if err := seedRegistration(ctx, tokenStore, cfg.Upstream.OAuth); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
	}

	client, err := upstream.New(cfg.Upstream, store, logger.Named("upstream"))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return client, db, nil
}

// resolveSecrets expands ${env:NAME} and ${keyring:alias} references in the
// OAuth client secret.
func resolveSecrets(ctx context.Context, cfg *config.OAuthConfig) error {
	if cfg == nil || cfg.ClientSecret == "" {
		return nil
	}
	resolved, err := secret.NewResolver().Expand(ctx, cfg.ClientSecret)
	if err != nil {
		return fmt.Errorf("resolve client secret: %w", err)
	}
	cfg.ClientSecret = resolved
	return nil
}

func seedRegistration(ctx context.Context, store *storage.TokenStore, cfg *config.OAuthConfig) error {
	existing, err := store.GetClientRegistration(ctx)
	if err != nil {
		return err
	}
	if existing != nil && existing.ClientID == cfg.ClientID {
		return nil
	}
	return store.SetClientRegistration(ctx, &oauth.ClientRegistration{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})
}
