package secret

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "bsnsmcp"

// KeyringProvider resolves ${keyring:alias} references from the OS
// credential store.
type KeyringProvider struct {
	serviceName string
}

func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{serviceName: keyringService}
}

func (p *KeyringProvider) CanResolve(secretType string) bool {
	return secretType == "keyring"
}

func (p *KeyringProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	value, err := keyring.Get(p.serviceName, ref.Name)
	if err != nil {
		return "", fmt.Errorf("keyring secret %s: %w", ref.Name, err)
	}
	return value, nil
}

func (p *KeyringProvider) Store(_ context.Context, ref Ref, value string) error {
	if err := keyring.Set(p.serviceName, ref.Name, value); err != nil {
		return fmt.Errorf("store keyring secret %s: %w", ref.Name, err)
	}
	return nil
}

func (p *KeyringProvider) Delete(_ context.Context, ref Ref) error {
	if err := keyring.Delete(p.serviceName, ref.Name); err != nil {
		return fmt.Errorf("delete keyring secret %s: %w", ref.Name, err)
	}
	return nil
}

// IsAvailable probes the credential store with a throwaway entry. Headless
// Linux hosts often have no secret service running.
func (p *KeyringProvider) IsAvailable() bool {
	const probeKey = "__bsnsmcp_availability_probe__"
	if err := keyring.Set(p.serviceName, probeKey, "probe"); err != nil {
		return false
	}
	_, err := keyring.Get(p.serviceName, probeKey)
	_ = keyring.Delete(p.serviceName, probeKey)
	return err == nil
}
