package secret

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	values map[string]string
}

func (f *fakeProvider) CanResolve(secretType string) bool { return secretType == "fake" }
func (f *fakeProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	v, ok := f.values[ref.Name]
	if !ok {
		return "", fmt.Errorf("unknown secret %s", ref.Name)
	}
	return v, nil
}
func (f *fakeProvider) Store(_ context.Context, ref Ref, value string) error {
	f.values[ref.Name] = value
	return nil
}
func (f *fakeProvider) Delete(_ context.Context, ref Ref) error {
	delete(f.values, ref.Name)
	return nil
}
func (f *fakeProvider) IsAvailable() bool { return true }

func TestResolverEnvProvider(t *testing.T) {
	t.Setenv("BSNS_TEST_SECRET", "hunter2")

	r := NewResolver()
	value, err := r.Resolve(context.Background(), Ref{Type: "env", Name: "BSNS_TEST_SECRET"})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	_, err = r.Resolve(context.Background(), Ref{Type: "env", Name: "BSNS_TEST_UNSET"})
	assert.Error(t, err)
}

func TestResolverUnknownType(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve(context.Background(), Ref{Type: "vault", Name: "x"})
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	r := &Resolver{providers: map[string]Provider{
		"fake": &fakeProvider{values: map[string]string{"id": "abc", "secret": "xyz"}},
	}}
	ctx := context.Background()

	out, err := r.Expand(ctx, "client=${fake:id}&secret=${fake:secret}")
	require.NoError(t, err)
	assert.Equal(t, "client=abc&secret=xyz", out)

	out, err = r.Expand(ctx, "no refs")
	require.NoError(t, err)
	assert.Equal(t, "no refs", out)

	_, err = r.Expand(ctx, "${fake:missing}")
	assert.Error(t, err)
}
