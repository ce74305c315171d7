package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// clientRegistration returns the client identity for this server, loading a
// persisted registration or performing dynamic registration (RFC 7591) when
// none exists. Registration failure is fatal: without a client_id no flow
// can run.
func (p *Provider) clientRegistration(ctx context.Context, meta *ServerMetadata, authBase string) (*ClientRegistration, error) {
	reg, err := p.store.GetClientRegistration(ctx)
	if err != nil {
		return nil, fmt.Errorf("load client registration: %w", err)
	}
	if reg != nil && reg.ClientID != "" {
		return reg, nil
	}

	reg, err = p.registerClient(ctx, meta, authBase)
	if err != nil {
		return nil, err
	}
	if err := p.store.SetClientRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("persist client registration: %w", err)
	}
	p.logger.Info("registered oauth client",
		zap.String("client_id", MaskSecret(reg.ClientID)),
		zap.String("endpoint", meta.registrationEndpointOr(authBase)))
	return reg, nil
}

func (p *Provider) registerClient(ctx context.Context, meta *ServerMetadata, authBase string) (*ClientRegistration, error) {
	request := p.clientMeta

	// When the caller requested no scopes and the server advertises some,
	// register for everything it supports. The session's requested scope
	// stays empty; this only widens what the registration asks for.
	if request.Scope == "" && meta != nil && len(meta.ScopesSupported) > 0 {
		request.Scope = strings.Join(meta.ScopesSupported, " ")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode registration request: %w", err)
	}

	endpoint := meta.registrationEndpointOr(authBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registration request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read registration response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &RegistrationError{Status: resp.StatusCode, Body: string(body)}
	}

	reg := &ClientRegistration{}
	if err := json.Unmarshal(body, reg); err != nil {
		return nil, fmt.Errorf("parse registration response: %w", err)
	}
	if reg.ClientID == "" {
		return nil, &RegistrationError{Status: resp.StatusCode, Body: "response contained no client_id"}
	}
	return reg, nil
}
