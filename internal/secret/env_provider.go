package secret

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves ${env:NAME} references from the process environment.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) CanResolve(secretType string) bool {
	return secretType == "env"
}

func (p *EnvProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	value, ok := os.LookupEnv(ref.Name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref.Name)
	}
	return value, nil
}

func (p *EnvProvider) Store(_ context.Context, ref Ref, _ string) error {
	return fmt.Errorf("environment variables cannot be stored, set %s in the environment", ref.Name)
}

func (p *EnvProvider) Delete(_ context.Context, ref Ref) error {
	return fmt.Errorf("environment variables cannot be deleted, unset %s in the environment", ref.Name)
}

func (p *EnvProvider) IsAvailable() bool {
	return true
}
