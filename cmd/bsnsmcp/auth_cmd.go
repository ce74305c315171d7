package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bsns-mcp/bsnsmcp-go/internal/config"
	"github.com/bsns-mcp/bsnsmcp-go/internal/oauth"
)

var (
	authCmd = &cobra.Command{
		Use:   "auth",
		Short: "Authentication management commands",
		Long:  "Commands for managing OAuth authentication with the upstream MCP server",
	}

	authLoginCmd = &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the upstream server",
		Long: `Run the OAuth authorization flow for the configured upstream server.
The command opens your default browser for authorization and stores the
resulting tokens so later commands and the MCP server reuse them.

Examples:
  bsnsmcp auth login
  bsnsmcp auth login --upstream-url=https://api.example.com/mcp
  bsnsmcp auth login --auth-timeout=2m --log-level=debug`,
		RunE: runAuthLogin,
	}

	authStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the stored authentication state",
		RunE:  runAuthStatus,
	}

	authLogoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Discard stored tokens and client registration",
		RunE:  runAuthLogout,
	}

	authTimeout time.Duration
)

func init() {
	authLoginCmd.Flags().DurationVar(&authTimeout, "auth-timeout", oauth.DefaultFlowTimeout, "How long to wait for browser authorization")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Upstream != nil && cfg.Upstream.OAuth == nil {
		cfg.Upstream.OAuth = &config.OAuthConfig{}
	}
	if cfg.Upstream != nil && authTimeout > 0 {
		cfg.Upstream.OAuth.FlowTimeout = authTimeout
	}

	client, db, err := openUpstream(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer client.Close()

	provider := client.Provider()
	if provider == nil {
		return fmt.Errorf("upstream %s has no OAuth configuration", cfg.Upstream.Name)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout+time.Minute)
	defer cancel()

	tok, err := provider.EnsureToken(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Printf("Authenticated with %s\n", cfg.Upstream.Name)
	fmt.Printf("  Access token: %s\n", oauth.MaskSecret(tok.AccessToken))
	if !tok.ExpiresAt.IsZero() {
		fmt.Printf("  Expires:      %s\n", tok.ExpiresAt.Format(time.RFC3339))
	}
	if tok.Scope != "" {
		fmt.Printf("  Scope:        %s\n", tok.Scope)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, db, err := openUpstream(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer client.Close()

	store := db.TokenStoreFor(cfg.Upstream.Name, cfg.Upstream.URL)

	tok, err := store.GetTokens(cmd.Context())
	if err != nil {
		return err
	}
	reg, err := store.GetClientRegistration(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Upstream: %s (%s)\n", cfg.Upstream.Name, cfg.Upstream.URL)
	switch {
	case tok == nil:
		fmt.Println("  Tokens:       none stored")
	case tok.Valid(time.Now()):
		fmt.Printf("  Tokens:       valid, access %s\n", oauth.MaskSecret(tok.AccessToken))
		if !tok.ExpiresAt.IsZero() {
			fmt.Printf("  Expires:      %s\n", tok.ExpiresAt.Format(time.RFC3339))
		}
	default:
		fmt.Println("  Tokens:       expired")
		if tok.RefreshToken != "" {
			fmt.Println("  Refresh:      available, next use will refresh")
		}
	}
	if reg != nil {
		fmt.Printf("  Client ID:    %s\n", oauth.MaskSecret(reg.ClientID))
	} else {
		fmt.Println("  Client ID:    not registered")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, db, err := openUpstream(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	defer client.Close()

	store := db.TokenStoreFor(cfg.Upstream.Name, cfg.Upstream.URL)
	if err := store.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("Cleared stored credentials for %s\n", cfg.Upstream.Name)
	return nil
}
