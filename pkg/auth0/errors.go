package auth0

import (
	"fmt"
	"net/http"
)

// AuthError describes why a request could not be authenticated or authorised.
type AuthError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAuthError(status int, code, description string) *AuthError {
	return &AuthError{StatusCode: status, Code: code, Description: description}
}

var (
	errHeaderMissing     = newAuthError(http.StatusUnauthorized, "authorization_header_missing", "Authorization header is expected.")
	errNotBearer         = newAuthError(http.StatusUnauthorized, "invalid_header", `Authorization header must start with "Bearer".`)
	errTokenNotFound     = newAuthError(http.StatusUnauthorized, "invalid_header", "Token not found.")
	errNotBearerToken    = newAuthError(http.StatusUnauthorized, "invalid_header", "Authorization header must be bearer token.")
	errMalformedToken    = newAuthError(http.StatusBadRequest, "invalid_header", "Unable to parse authentication token.")
	errKeyNotFound       = newAuthError(http.StatusBadRequest, "invalid_header", "Unable to find the appropriate key.")
	errTokenExpired      = newAuthError(http.StatusUnauthorized, "token_expired", "Token expired.")
	errInvalidClaims     = newAuthError(http.StatusUnauthorized, "invalid_claims", "Incorrect claims. Please, check the audience and issuer.")
	errNoPermissions     = newAuthError(http.StatusBadRequest, "invalid_claims", "Permissions not included in JWT.")
	errPermissionMissing = newAuthError(http.StatusForbidden, "unauthorized", "Permission not found.")
)
