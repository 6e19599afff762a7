package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bear-san/coffee-shop/internal/environment"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEnvironment checks the compiled-in environment before a binary
// starts using it. A production build linked without -X values fails here.
func ValidateEnvironment(env environment.Config) error {
	if err := validateURL("apiServerUrl", env.APIServerURL); err != nil {
		return err
	}
	if env.Auth0.URL == "" {
		return &ValidationError{Field: "auth0.url", Message: "is required"}
	}
	if env.Auth0.Audience == "" {
		return &ValidationError{Field: "auth0.audience", Message: "is required"}
	}
	if env.Auth0.ClientID == "" {
		return &ValidationError{Field: "auth0.clientId", Message: "is required"}
	}
	return validateURL("auth0.callbackURL", env.Auth0.CallbackURL)
}

func validateURL(field, raw string) error {
	if raw == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: field, Message: "must be an absolute URL with scheme and host"}
	}
	return nil
}

// validateOrigin accepts http(s) origins and patterns with one wildcard.
func validateOrigin(origin string) error {
	invalid := &ValidationError{
		Field:   "cors.allowed_origins",
		Message: fmt.Sprintf("%q must be an http or https origin", origin),
	}

	switch strings.Count(origin, "*") {
	case 0:
	case 1:
		if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			return nil
		}
		return invalid
	default:
		return invalid
	}

	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid
	}
	return nil
}
