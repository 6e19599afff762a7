package auth0

import (
	"slices"
	"strings"
)

// TokenFromHeader extracts the bearer token from an Authorization header value.
func TokenFromHeader(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errHeaderMissing
	}

	parts := strings.Fields(header)
	switch {
	case !strings.EqualFold(parts[0], "bearer"):
		return "", errNotBearer
	case len(parts) == 1:
		return "", errTokenNotFound
	case len(parts) > 2:
		return "", errNotBearerToken
	}
	return parts[1], nil
}

// CheckPermissions fails unless claims grant permission.
func CheckPermissions(claims *Claims, permission string) error {
	if claims == nil || claims.Permissions == nil {
		return errNoPermissions
	}
	if !slices.Contains(claims.Permissions, permission) {
		return errPermissionMissing
	}
	return nil
}
