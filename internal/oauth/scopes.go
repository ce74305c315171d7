package oauth

import "strings"

// validateScopes checks that every granted scope was requested. Either side
// being empty is trivially valid: an empty grant means the server stayed
// silent, and an empty request places no bound on the grant.
func validateScopes(requested, granted string) error {
	reqFields := strings.Fields(requested)
	grantFields := strings.Fields(granted)
	if len(reqFields) == 0 || len(grantFields) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(reqFields))
	for _, s := range reqFields {
		allowed[s] = struct{}{}
	}
	for _, s := range grantFields {
		if _, ok := allowed[s]; !ok {
			return &ScopeViolationError{Requested: requested, Granted: granted}
		}
	}
	return nil
}
