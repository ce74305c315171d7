// Package secret resolves ${type:name} references in configuration values,
// so client secrets never have to live in the config file as plaintext.
// Supported providers are env (environment variables) and keyring (the OS
// credential store).
package secret

import "context"

// Ref is a parsed secret reference.
type Ref struct {
	Type     string // env or keyring
	Name     string // variable name or keyring alias
	Original string // the reference as written
}

// Provider resolves secrets of one type.
type Provider interface {
	CanResolve(secretType string) bool
	Resolve(ctx context.Context, ref Ref) (string, error)
	Store(ctx context.Context, ref Ref, value string) error
	Delete(ctx context.Context, ref Ref) error
	IsAvailable() bool
}
