package secret

import (
	"fmt"
	"regexp"
	"strings"
)

// refRegex matches ${type:name} patterns.
var refRegex = regexp.MustCompile(`\$\{([^:}]+):([^}]+)\}`)

// ParseRef parses a single secret reference.
func ParseRef(input string) (*Ref, error) {
	matches := refRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid secret reference: %s", input)
	}
	return &Ref{
		Type:     strings.TrimSpace(matches[1]),
		Name:     strings.TrimSpace(matches[2]),
		Original: matches[0],
	}, nil
}

// IsRef reports whether input contains a secret reference.
func IsRef(input string) bool {
	return refRegex.MatchString(input)
}

// FindRefs returns every secret reference in input.
func FindRefs(input string) []*Ref {
	matches := refRegex.FindAllStringSubmatch(input, -1)
	refs := make([]*Ref, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, &Ref{
			Type:     strings.TrimSpace(m[1]),
			Name:     strings.TrimSpace(m[2]),
			Original: m[0],
		})
	}
	return refs
}
