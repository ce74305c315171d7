package secret

import (
	"context"
	"fmt"
	"strings"
)

// Resolver dispatches secret references to registered providers.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver returns a resolver with the env and keyring providers
// registered.
func NewResolver() *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.RegisterProvider("env", NewEnvProvider())
	r.RegisterProvider("keyring", NewKeyringProvider())
	return r
}

func (r *Resolver) RegisterProvider(secretType string, provider Provider) {
	r.providers[secretType] = provider
}

// Resolve returns the value a reference points at.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return "", fmt.Errorf("no provider for secret type %q", ref.Type)
	}
	return provider.Resolve(ctx, ref)
}

// Store saves a secret through the provider for its type.
func (r *Resolver) Store(ctx context.Context, ref Ref, value string) error {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return fmt.Errorf("no provider for secret type %q", ref.Type)
	}
	return provider.Store(ctx, ref, value)
}

// Delete removes a secret through the provider for its type.
func (r *Resolver) Delete(ctx context.Context, ref Ref) error {
	provider, ok := r.providers[ref.Type]
	if !ok {
		return fmt.Errorf("no provider for secret type %q", ref.Type)
	}
	return provider.Delete(ctx, ref)
}

// Expand replaces every secret reference in input with its resolved value.
// Strings without references pass through untouched.
func (r *Resolver) Expand(ctx context.Context, input string) (string, error) {
	if !IsRef(input) {
		return input, nil
	}
	result := input
	for _, ref := range FindRefs(input) {
		value, err := r.Resolve(ctx, *ref)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", ref.Original, err)
		}
		result = strings.ReplaceAll(result, ref.Original, value)
	}
	return result, nil
}
