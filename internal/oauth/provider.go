package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultFlowTimeout bounds how long an interactive authorization flow may
// take before the user is assumed to have walked away.
const DefaultFlowTimeout = 5 * time.Minute

// RedirectFunc delivers the authorization URL to the user, typically by
// opening a browser.
type RedirectFunc func(ctx context.Context, authorizationURL string) error

// CallbackFunc blocks until the authorization server redirects back, and
// returns the code and state query parameters it carried.
type CallbackFunc func(ctx context.Context) (code, state string, err error)

// Options configures a Provider.
type Options struct {
	// ServerURL is the protected server whose requests need tokens.
	ServerURL string
	// ClientMetadata describes this client for registration and the
	// authorization request. RedirectURIs must not be empty.
	ClientMetadata ClientMetadata
	// Store persists tokens and registrations. Defaults to an in-memory
	// store when nil.
	Store TokenStore
	// Redirect presents the authorization URL to the user. Required.
	Redirect RedirectFunc
	// Callback waits for the authorization response. Required.
	Callback CallbackFunc
	// HTTPClient is used for discovery, registration and token requests.
	// Defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	// FlowTimeout bounds the interactive flow. Defaults to DefaultFlowTimeout.
	FlowTimeout time.Duration
	// Logger defaults to the process logger named "oauth".
	Logger *zap.Logger
}

// Provider owns the token lifecycle for one protected server: it discovers
// endpoints, registers the client, runs the authorization code flow with
// PKCE, refreshes expired tokens, and hands out valid access tokens.
//
// All public methods are safe for concurrent use. When several callers need
// a token at once, exactly one acquisition runs and every caller observes
// its outcome.
type Provider struct {
	serverURL  string
	clientMeta ClientMetadata
	store      TokenStore
	redirect   RedirectFunc
	callback   CallbackFunc
	httpClient *http.Client

	flowTimeout time.Duration
	logger      *zap.Logger

	mu          sync.Mutex
	token       *Token
	tokenLoaded bool
	reg         *ClientRegistration
	meta        *ServerMetadata
	discovered  bool
	inflight    *acquisition

	// expectedState is the pending flow's CSRF state, consumed exactly once.
	expectedState string
	codeVerifier  string
}

// acquisition is a single in-flight token acquisition. Concurrent callers
// wait on done and read the same result.
type acquisition struct {
	done  chan struct{}
	token *Token
	err   error
}

// NewProvider validates opts and builds a Provider.
func NewProvider(opts Options) (*Provider, error) {
	if opts.ServerURL == "" {
		return nil, errors.New("oauth: server URL is required")
	}
	if _, err := AuthBaseURL(opts.ServerURL); err != nil {
		return nil, err
	}
	if len(opts.ClientMetadata.RedirectURIs) == 0 {
		return nil, errors.New("oauth: at least one redirect URI is required")
	}
	if opts.Redirect == nil {
		return nil, errors.New("oauth: redirect handler is required")
	}
	if opts.Callback == nil {
		return nil, errors.New("oauth: callback handler is required")
	}

	p := &Provider{
		serverURL:   opts.ServerURL,
		clientMeta:  opts.ClientMetadata,
		store:       opts.Store,
		redirect:    opts.Redirect,
		callback:    opts.Callback,
		httpClient:  opts.HTTPClient,
		flowTimeout: opts.FlowTimeout,
		logger:      opts.Logger,
	}
	if p.store == nil {
		p.store = NewMemoryTokenStore()
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.flowTimeout <= 0 {
		p.flowTimeout = DefaultFlowTimeout
	}
	if p.logger == nil {
		p.logger = zap.L().Named("oauth")
	}
	return p, nil
}

// EnsureToken returns a valid access token, acquiring or refreshing one if
// necessary. Concurrent callers coalesce onto a single acquisition and all
// receive its token or its error.
func (p *Provider) EnsureToken(ctx context.Context) (*Token, error) {
	p.mu.Lock()

	tok, err := p.loadTokenLocked(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if tok.Valid(time.Now()) {
		p.mu.Unlock()
		return tok, nil
	}

	if fl := p.inflight; fl != nil {
		p.mu.Unlock()
		select {
		case <-fl.done:
			return fl.token, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &acquisition{done: make(chan struct{})}
	p.inflight = fl
	p.mu.Unlock()

	fl.token, fl.err = p.acquireToken(ctx, tok)

	p.mu.Lock()
	p.inflight = nil
	p.mu.Unlock()
	close(fl.done)

	return fl.token, fl.err
}

// loadTokenLocked returns the cached token, reading the store at most once
// per process. After InvalidateTokens the cache stays authoritative so a
// rejected token is not resurrected from disk.
func (p *Provider) loadTokenLocked(ctx context.Context) (*Token, error) {
	if p.tokenLoaded {
		return p.token, nil
	}
	tok, err := p.store.GetTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	p.token = tok
	p.tokenLoaded = true
	return tok, nil
}

// InvalidateTokens drops the cached token. The next EnsureToken call runs a
// fresh acquisition instead of re-reading the store.
func (p *Provider) InvalidateTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
	p.tokenLoaded = true
	p.logger.Debug("cached token invalidated")
}

// acquireToken runs the recovery ladder: discovery, registration, refresh if
// a refresh token survives, and finally the interactive flow.
func (p *Provider) acquireToken(ctx context.Context, stale *Token) (*Token, error) {
	authBase, err := AuthBaseURL(p.serverURL)
	if err != nil {
		return nil, err
	}

	meta, err := p.serverMetadata(ctx, authBase)
	if err != nil {
		return nil, err
	}

	reg, err := p.clientRegistrationCached(ctx, meta, authBase)
	if err != nil {
		return nil, err
	}

	if stale != nil && stale.RefreshToken != "" {
		tok, err := p.refreshGrant(ctx, meta, authBase, reg, stale.RefreshToken)
		if err == nil {
			// Only a failed grant redemption falls back to the interactive
			// flow. A scope violation or persistence failure on a granted
			// token is fatal and surfaces to the caller.
			tok, err = p.finishToken(ctx, tok)
			if err != nil {
				return nil, err
			}
			p.logger.Debug("token refreshed", zap.String("access_token", MaskSecret(tok.AccessToken)))
			return tok, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("token refresh failed, starting authorization flow", zap.Error(err))
	}

	return p.runFlow(ctx, meta, authBase, reg)
}

// serverMetadata performs discovery once and caches the outcome, including
// the no-metadata outcome. A context failure is not cached.
func (p *Provider) serverMetadata(ctx context.Context, authBase string) (*ServerMetadata, error) {
	p.mu.Lock()
	if p.discovered {
		meta := p.meta
		p.mu.Unlock()
		return meta, nil
	}
	p.mu.Unlock()

	meta, err := p.discoverServerMetadata(ctx, authBase)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.meta = meta
	p.discovered = true
	p.mu.Unlock()
	return meta, nil
}

func (p *Provider) clientRegistrationCached(ctx context.Context, meta *ServerMetadata, authBase string) (*ClientRegistration, error) {
	p.mu.Lock()
	if p.reg != nil {
		reg := p.reg
		p.mu.Unlock()
		return reg, nil
	}
	p.mu.Unlock()

	reg, err := p.clientRegistration(ctx, meta, authBase)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.reg = reg
	p.mu.Unlock()
	return reg, nil
}

// runFlow executes one interactive authorization code flow with PKCE.
func (p *Provider) runFlow(ctx context.Context, meta *ServerMetadata, authBase string, reg *ClientRegistration) (*Token, error) {
	flowID := uuid.New().String()
	log := p.logger.With(zap.String("flow_id", flowID))

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, err
	}
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.codeVerifier = verifier
	p.expectedState = state
	p.mu.Unlock()
	defer p.clearFlowScratch()

	authURL, err := p.buildAuthorizationURL(meta, authBase, reg, state, S256Challenge(verifier))
	if err != nil {
		return nil, err
	}

	flowCtx, cancel := context.WithTimeout(ctx, p.flowTimeout)
	defer cancel()

	log.Info("starting authorization flow",
		zap.String("authorization_endpoint", meta.authorizationEndpointOr(authBase)))

	if err := p.redirect(flowCtx, authURL); err != nil {
		return nil, fmt.Errorf("present authorization url: %w", err)
	}

	code, echoedState, err := p.callback(flowCtx)
	if err != nil {
		if flowCtx.Err() != nil && ctx.Err() == nil {
			return nil, &AuthorizationTimeoutError{Timeout: p.flowTimeout}
		}
		return nil, fmt.Errorf("authorization callback: %w", err)
	}

	// The expected state is single use: consume it before validation so a
	// replayed callback can never match.
	p.mu.Lock()
	expected := p.expectedState
	p.expectedState = ""
	p.mu.Unlock()

	if expected == "" || !ConstantTimeEqual(echoedState, expected) {
		log.Error("state mismatch in authorization response")
		return nil, &StateMismatchError{}
	}
	if code == "" {
		return nil, &MissingCodeError{}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.clientMeta.RedirectURIs[0])
	form.Set("client_id", reg.ClientID)
	form.Set("code_verifier", verifier)
	if reg.ClientSecret != "" {
		form.Set("client_secret", reg.ClientSecret)
	}

	tok, err := p.postTokenRequest(flowCtx, meta.tokenEndpointOr(authBase), form)
	if err != nil {
		if flowCtx.Err() != nil && ctx.Err() == nil {
			return nil, &AuthorizationTimeoutError{Timeout: p.flowTimeout}
		}
		return nil, err
	}

	tok, err = p.finishToken(ctx, tok)
	if err != nil {
		return nil, err
	}

	log.Info("authorization flow complete",
		zap.String("access_token", MaskSecret(tok.AccessToken)),
		zap.String("scope", tok.Scope))
	return tok, nil
}

func (p *Provider) clearFlowScratch() {
	p.mu.Lock()
	p.codeVerifier = ""
	p.expectedState = ""
	p.mu.Unlock()
}

func (p *Provider) buildAuthorizationURL(meta *ServerMetadata, authBase string, reg *ClientRegistration, state, challenge string) (string, error) {
	endpoint := meta.authorizationEndpointOr(authBase)
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse authorization endpoint: %w", err)
	}

	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", reg.ClientID)
	// The redirect URI comes from the configured client metadata, not the
	// stored registration. A pre-provisioned registration may carry no
	// redirect URIs at all, and a stored one may point at a callback port
	// from an earlier run.
	q.Set("redirect_uri", p.clientMeta.RedirectURIs[0])
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	if p.clientMeta.Scope != "" {
		q.Set("scope", p.clientMeta.Scope)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// refreshGrant redeems a refresh token for a new access token. The old
// refresh token is kept when the response does not rotate it. The caller
// is responsible for validating and persisting the result.
func (p *Provider) refreshGrant(ctx context.Context, meta *ServerMetadata, authBase string, reg *ClientRegistration, refresh string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)
	form.Set("client_id", reg.ClientID)
	if reg.ClientSecret != "" {
		form.Set("client_secret", reg.ClientSecret)
	}

	tok, err := p.postTokenRequest(ctx, meta.tokenEndpointOr(authBase), form)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refresh
	}
	return tok, nil
}

// postTokenRequest sends a form-encoded grant to the token endpoint and
// parses the response.
func (p *Provider) postTokenRequest(ctx context.Context, endpoint string, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newTokenExchangeError(resp.StatusCode, body)
	}

	tok := &Token{}
	if err := json.Unmarshal(body, tok); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access_token")
	}
	return tok, nil
}

// finishToken validates the grant against the requested scopes, stamps the
// expiry, persists the token and installs it as the cached token. Scope
// validation happens before any persistence so an over-granted token never
// touches the store.
func (p *Provider) finishToken(ctx context.Context, tok *Token) (*Token, error) {
	if err := validateScopes(p.clientMeta.Scope, tok.Scope); err != nil {
		return nil, err
	}
	if tok.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if err := p.store.SetTokens(ctx, tok); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}

	p.mu.Lock()
	p.token = tok
	p.tokenLoaded = true
	p.mu.Unlock()
	return tok, nil
}
