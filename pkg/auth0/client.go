// Package auth0 talks to the Auth0 tenant described by the environment:
// it builds login links, keeps the client-side session and verifies
// access tokens on the API side.
package auth0

import (
	"errors"
	"net/url"
	"strings"

	"github.com/bear-san/coffee-shop/internal/environment"
)

const tenantSuffix = ".auth0.com"

// Domain turns the environment's domain prefix into a tenant host name:
// "kema" and regional "kema.eu" get the auth0.com suffix, while full host
// names (two or more dots) are kept as they are.
func Domain(prefix string) string {
	d := strings.TrimSpace(prefix)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimSuffix(d, "/")
	if d == "" || strings.HasSuffix(d, tenantSuffix) || strings.Count(d, ".") > 1 {
		return d
	}
	return d + tenantSuffix
}

// Client builds the identity-provider URLs for one application.
type Client struct {
	domain      string
	audience    string
	clientID    string
	callbackURL string
}

// New creates a Client from the environment's Auth0 record.
func New(cfg environment.Auth0) (*Client, error) {
	domain := Domain(cfg.URL)
	switch {
	case domain == "":
		return nil, errors.New("auth0: domain prefix is required")
	case cfg.Audience == "":
		return nil, errors.New("auth0: audience is required")
	case cfg.ClientID == "":
		return nil, errors.New("auth0: client id is required")
	}

	return &Client{
		domain:      domain,
		audience:    cfg.Audience,
		clientID:    cfg.ClientID,
		callbackURL: cfg.CallbackURL,
	}, nil
}

// Domain returns the tenant host name.
func (c *Client) Domain() string { return c.domain }

// Audience returns the API identifier tokens are requested for.
func (c *Client) Audience() string { return c.audience }

// Issuer returns the expected "iss" claim of tokens issued by the tenant.
func (c *Client) Issuer() string {
	return "https://" + c.domain + "/"
}

// JWKSURL returns the tenant's signing key set location.
func (c *Client) JWKSURL() string {
	return "https://" + c.domain + "/.well-known/jwks.json"
}

// LoginLink returns the implicit-flow authorize URL. callbackPath is
// appended to the configured callback URL.
func (c *Client) LoginLink(callbackPath string) string {
	q := url.Values{}
	q.Set("audience", c.audience)
	q.Set("response_type", "token")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.callbackURL+callbackPath)

	u := url.URL{Scheme: "https", Host: c.domain, Path: "/authorize", RawQuery: q.Encode()}
	return u.String()
}

// LogoutLink returns the tenant logout URL. An empty returnTo sends the
// user back to the callback URL.
func (c *Client) LogoutLink(returnTo string) string {
	if returnTo == "" {
		returnTo = c.callbackURL
	}
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("returnTo", returnTo)

	u := url.URL{Scheme: "https", Host: c.domain, Path: "/v2/logout", RawQuery: q.Encode()}
	return u.String()
}
