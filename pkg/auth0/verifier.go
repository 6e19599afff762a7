package auth0

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Claims are the access token claims used by the drinks API.
type Claims struct {
	jwt.RegisteredClaims
	// Permissions is nil when the token has no "permissions" claim at all.
	Permissions []string `json:"permissions"`
	Scope       string   `json:"scope,omitempty"`
}

const (
	defaultJWKSRefresh    = 15 * time.Minute
	// forcedRefreshInterval bounds refetches triggered by unknown key ids.
	forcedRefreshInterval = time.Minute
)

// ErrJWKSUnavailable is returned by Verify when the signing keys cannot be
// fetched. It is a server-side failure, not an *AuthError.
var ErrJWKSUnavailable = errors.New("auth0: jwks unavailable")

// Verifier validates RS256 access tokens issued by an Auth0 tenant.
type Verifier struct {
	audience string
	issuer   string
	jwksURL  string
	cache    *jwk.Cache
	parser   *jwt.Parser

	mu         sync.Mutex
	lastForced time.Time
}

// NewVerifier registers the tenant JWKS in a refreshing cache. The cache's
// background refresh stops when ctx is cancelled.
func NewVerifier(ctx context.Context, audience, issuer, jwksURL string) (*Verifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(defaultJWKSRefresh)); err != nil {
		return nil, fmt.Errorf("register jwks %s: %w", jwksURL, err)
	}

	return &Verifier{
		audience: audience,
		issuer:   issuer,
		jwksURL:  jwksURL,
		cache:    cache,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithAudience(audience),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// NewVerifierForClient is NewVerifier with the audience, issuer and JWKS
// location of c.
func NewVerifierForClient(ctx context.Context, c *Client) (*Verifier, error) {
	return NewVerifier(ctx, c.Audience(), c.Issuer(), c.JWKSURL())
}

// Verify checks the signature and the registered claims of rawToken.
// Token problems are returned as *AuthError.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errKeyNotFound
		}
		return v.publicKey(ctx, kid)
	})
	if err == nil {
		return claims, nil
	}

	var authErr *AuthError
	switch {
	case errors.As(err, &authErr):
		return nil, authErr
	case errors.Is(err, ErrJWKSUnavailable):
		return nil, err
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return nil, errInvalidClaims
	default:
		return nil, errMalformedToken
	}
}

// publicKey looks kid up in the cached key set, forcing one refresh when
// the key is unknown (the tenant may have rotated keys).
func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	set, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJWKSUnavailable, err)
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		if !v.allowForcedRefresh() {
			return nil, errKeyNotFound
		}
		if set, err = v.cache.Refresh(ctx, v.jwksURL); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrJWKSUnavailable, err)
		}
		if key, ok = set.LookupKeyID(kid); !ok {
			return nil, errKeyNotFound
		}
	}

	var pub rsa.PublicKey
	if err := key.Raw(&pub); err != nil {
		return nil, errKeyNotFound
	}
	return &pub, nil
}

// allowForcedRefresh permits at most one unknown-kid refetch per
// forcedRefreshInterval.
func (v *Verifier) allowForcedRefresh() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	if !v.lastForced.IsZero() && now.Sub(v.lastForced) < forcedRefreshInterval {
		return false
	}
	v.lastForced = now
	return true
}
