// Package oauth implements the client side of the OAuth 2.1 authorization
// code flow with PKCE: endpoint discovery, dynamic client registration,
// browser-based authorization, token exchange and refresh, and an
// http.RoundTripper that injects bearer tokens into outgoing requests.
package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// verifierCharset is the unreserved character set permitted for PKCE code
// verifiers (RFC 7636 section 4.1).
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// verifierLength is the maximum length allowed by RFC 7636.
const verifierLength = 128

// GenerateCodeVerifier returns a 128-character code verifier drawn uniformly
// from the unreserved charset.
func GenerateCodeVerifier() (string, error) {
	// Rejection sampling keeps the distribution uniform: a raw byte is
	// accepted only below the largest multiple of len(charset).
	const limit = byte(256 / len(verifierCharset) * len(verifierCharset)) // 198

	out := make([]byte, 0, verifierLength)
	buf := make([]byte, verifierLength)
	for len(out) < verifierLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate code verifier: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, verifierCharset[int(b)%len(verifierCharset)])
			if len(out) == verifierLength {
				break
			}
		}
	}
	return string(out), nil
}

// S256Challenge derives the code challenge from a verifier using the S256
// method: base64url (no padding) of the SHA-256 digest.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns a CSRF state value with 256 bits of entropy,
// base64url encoded without padding.
func GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ConstantTimeEqual compares two strings in constant time.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
