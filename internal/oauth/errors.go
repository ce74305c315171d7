package oauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RegistrationError is returned when dynamic client registration fails.
// It is fatal: without a client identity no authorization flow can run.
type RegistrationError struct {
	Status int
	Body   string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("oauth: client registration failed with status %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// StateMismatchError is returned when the state echoed by the authorization
// server does not match the value sent with the authorization request.
type StateMismatchError struct{}

func (e *StateMismatchError) Error() string {
	return "oauth: state parameter mismatch, possible CSRF attack"
}

// MissingCodeError is returned when the callback carried no authorization code.
type MissingCodeError struct{}

func (e *MissingCodeError) Error() string {
	return "oauth: authorization response contained no code"
}

// ScopeViolationError is returned when the server granted scopes that were
// never requested. The offending token is discarded without being stored.
type ScopeViolationError struct {
	Requested string
	Granted   string
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("oauth: server granted unrequested scopes: requested %q, granted %q", e.Requested, e.Granted)
}

// TokenExchangeError is returned when the token endpoint rejects a grant.
// Code and Description are filled from the OAuth error object when the
// response body parses as one.
type TokenExchangeError struct {
	Status      int
	Code        string
	Description string
	Body        string
}

func (e *TokenExchangeError) Error() string {
	if e.Code != "" {
		if e.Description != "" {
			return fmt.Sprintf("oauth: token request failed with status %d: %s: %s", e.Status, e.Code, e.Description)
		}
		return fmt.Sprintf("oauth: token request failed with status %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("oauth: token request failed with status %d", e.Status)
}

// newTokenExchangeError builds a TokenExchangeError from a non-200 token
// endpoint response, extracting the standard error object when present.
func newTokenExchangeError(status int, body []byte) *TokenExchangeError {
	texErr := &TokenExchangeError{Status: status, Body: string(body)}
	var oauthErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &oauthErr); err == nil {
		texErr.Code = oauthErr.Error
		texErr.Description = oauthErr.ErrorDescription
	}
	return texErr
}

// AuthorizationTimeoutError is returned when the interactive flow did not
// complete within the configured window.
type AuthorizationTimeoutError struct {
	Timeout time.Duration
}

func (e *AuthorizationTimeoutError) Error() string {
	return fmt.Sprintf("oauth: authorization flow timed out after %s", e.Timeout)
}
