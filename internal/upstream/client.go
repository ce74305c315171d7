// Package upstream connects to a remote MCP server over streamable HTTP,
// authenticating with OAuth when the server requires it.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/bsns-mcp/bsnsmcp-go/internal/config"
	"github.com/bsns-mcp/bsnsmcp-go/internal/oauth"
)

const defaultRequestTimeout = 180 * time.Second

// Client talks MCP to one upstream server.
type Client struct {
	cfg      *config.UpstreamConfig
	provider *oauth.Provider
	callback *oauth.CallbackServer
	logger   *zap.Logger

	mu         sync.Mutex
	mcpClient  *client.Client
	serverInfo *mcp.InitializeResult
}

// New builds a client for cfg. When cfg carries an OAuth section a token
// provider is assembled around store, with a loopback callback server and
// the system browser for the interactive hop.
func New(cfg *config.UpstreamConfig, store oauth.TokenStore, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("upstream URL is required")
	}
	if logger == nil {
		logger = zap.L().Named("upstream")
	}

	c := &Client{cfg: cfg, logger: logger}

	if cfg.OAuth != nil {
		cb, err := oauth.StartCallbackServer(logger)
		if err != nil {
			return nil, err
		}
		c.callback = cb

		provider, err := oauth.NewProvider(oauth.Options{
			ServerURL: cfg.URL,
			ClientMetadata: oauth.ClientMetadata{
				ClientName:              clientName(cfg.OAuth),
				RedirectURIs:            []string{cb.RedirectURI()},
				GrantTypes:              []string{"authorization_code", "refresh_token"},
				ResponseTypes:           []string{"code"},
				Scope:                   strings.Join(cfg.OAuth.Scopes, " "),
				TokenEndpointAuthMethod: "none",
			},
			Store:       store,
			Redirect:    oauth.BrowserRedirect(logger),
			Callback:    cb.Await,
			FlowTimeout: cfg.OAuth.FlowTimeout,
			Logger:      logger.Named("oauth"),
		})
		if err != nil {
			cb.Close()
			return nil, err
		}
		c.provider = provider
	}

	return c, nil
}

func clientName(cfg *config.OAuthConfig) string {
	if cfg.ClientName != "" {
		return cfg.ClientName
	}
	return "bsnsmcp"
}

// Provider exposes the token provider, or nil when the upstream needs no
// authentication.
func (c *Client) Provider() *oauth.Provider {
	return c.provider
}

// Connect establishes the MCP session: transport start plus the initialize
// handshake. Connecting an already connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcpClient != nil {
		return nil
	}

	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	opts := []transport.StreamableHTTPCOption{
		transport.WithHTTPTimeout(timeout),
	}
	if len(c.cfg.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.cfg.Headers))
	}
	if c.provider != nil {
		httpClient := &http.Client{
			Transport: &oauth.Transport{Provider: c.provider},
			Timeout:   timeout,
		}
		opts = append(opts, transport.WithHTTPBasicClient(httpClient))
	}

	httpTransport, err := transport.NewStreamableHTTP(c.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	mcpClient := client.NewClient(httpTransport)
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "bsnsmcp",
		Version: "0.1.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := mcpClient.Initialize(ctx, initRequest)
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("initialize session: %w", err)
	}

	c.mcpClient = mcpClient
	c.serverInfo = serverInfo
	c.logger.Info("connected to upstream",
		zap.String("server", c.cfg.Name),
		zap.String("server_name", serverInfo.ServerInfo.Name),
		zap.String("server_version", serverInfo.ServerInfo.Version))
	return nil
}

// ListTools returns the tools the upstream advertises.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	mcpClient, err := c.session()
	if err != nil {
		return nil, err
	}

	result, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes one upstream tool.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	mcpClient, err := c.session()
	if err != nil {
		return nil, err
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := mcpClient.CallTool(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", name, err)
	}
	return result, nil
}

// ServerInfo returns the initialize result, or nil before Connect.
func (c *Client) ServerInfo() *mcp.InitializeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverInfo
}

func (c *Client) session() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcpClient == nil {
		return nil, fmt.Errorf("upstream %s is not connected", c.cfg.Name)
	}
	return c.mcpClient, nil
}

// Close tears down the MCP session and the callback server.
func (c *Client) Close() error {
	c.mu.Lock()
	mcpClient := c.mcpClient
	c.mcpClient = nil
	c.serverInfo = nil
	c.mu.Unlock()

	var firstErr error
	if mcpClient != nil {
		if err := mcpClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.callback != nil {
		if err := c.callback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
