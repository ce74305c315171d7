package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"client-secret-value", "cli***alue"},
		{"eyJhbGciOiJIUzI1NiJ9", "eyJ***NiJ9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskSecret(tt.in), "input %q", tt.in)
	}
}
