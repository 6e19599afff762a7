package auth0_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bear-san/coffee-shop/pkg/auth0"
)

const (
	testAudience = "firstApi"
	testIssuer   = "https://kema.auth0.com/"
	testKID      = "test-kid"
)

type tenant struct {
	key     *rsa.PrivateKey
	server  *httptest.Server
	fetches atomic.Int32
}

func newTenant(t *testing.T) *tenant {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pub, err := jwk.FromRaw(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, testKID))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, "RS256"))
	require.NoError(t, pub.Set(jwk.KeyUsageKey, "sig"))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))
	body, err := json.Marshal(set)
	require.NoError(t, err)

	tn := &tenant{key: key}
	tn.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		tn.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(tn.server.Close)
	return tn
}

func (tn *tenant) sign(t *testing.T, claims jwt.Claims, kid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(tn.key)
	require.NoError(t, err)
	return signed
}

func validClaims(permissions ...string) *auth0.Claims {
	now := time.Now()
	return &auth0.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|barista",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Permissions: permissions,
	}
}

func newVerifier(t *testing.T, tn *tenant) *auth0.Verifier {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	v, err := auth0.NewVerifier(ctx, testAudience, testIssuer, tn.server.URL)
	require.NoError(t, err)
	return v
}

func assertAuthError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var authErr *auth0.AuthError
	require.True(t, errors.As(err, &authErr), "want *AuthError, got %v", err)
	assert.Equal(t, status, authErr.StatusCode)
	assert.Equal(t, code, authErr.Code)
}

func TestVerifier_Verify_Success(t *testing.T) {
	tn := newTenant(t)
	v := newVerifier(t, tn)

	claims, err := v.Verify(context.Background(), tn.sign(t, validClaims("get:drinks-detail"), testKID))
	require.NoError(t, err)
	assert.Equal(t, "auth0|barista", claims.Subject)
	assert.Equal(t, []string{"get:drinks-detail"}, claims.Permissions)
}

func TestVerifier_Verify_CachesKeys(t *testing.T) {
	tn := newTenant(t)
	v := newVerifier(t, tn)

	for range 3 {
		_, err := v.Verify(context.Background(), tn.sign(t, validClaims(), testKID))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tn.fetches.Load())
}

func TestVerifier_Verify_UnknownKIDRefreshIsRateLimited(t *testing.T) {
	tn := newTenant(t)
	v := newVerifier(t, tn)

	for range 20 {
		_, err := v.Verify(context.Background(), tn.sign(t, validClaims(), "rotated"))
		assertAuthError(t, err, http.StatusBadRequest, "invalid_header")
	}
	assert.LessOrEqual(t, tn.fetches.Load(), int32(2))

	_, err := v.Verify(context.Background(), tn.sign(t, validClaims(), testKID))
	require.NoError(t, err)
	assert.LessOrEqual(t, tn.fetches.Load(), int32(2))
}

func TestVerifier_Verify_Failures(t *testing.T) {
	tn := newTenant(t)
	v := newVerifier(t, tn)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"otherApi"}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.auth0.com/"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"garbage", "not-a-jwt", http.StatusBadRequest, "invalid_header"},
		{"expired", tn.sign(t, expired, testKID), http.StatusUnauthorized, "token_expired"},
		{"wrong audience", tn.sign(t, wrongAudience, testKID), http.StatusUnauthorized, "invalid_claims"},
		{"wrong issuer", tn.sign(t, wrongIssuer, testKID), http.StatusUnauthorized, "invalid_claims"},
		{"missing exp", tn.sign(t, noExpiry, testKID), http.StatusUnauthorized, "invalid_claims"},
		{"unknown kid", tn.sign(t, validClaims(), "rotated"), http.StatusBadRequest, "invalid_header"},
		{"no kid", tn.sign(t, validClaims(), ""), http.StatusBadRequest, "invalid_header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assertAuthError(t, err, tt.status, tt.code)
		})
	}
}

func TestVerifier_Verify_RejectsHS256(t *testing.T) {
	tn := newTenant(t)
	v := newVerifier(t, tn)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	token.Header["kid"] = testKID
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assertAuthError(t, err, http.StatusBadRequest, "invalid_header")
}

func TestVerifier_Verify_JWKSUnavailable(t *testing.T) {
	tn := newTenant(t)
	token := tn.sign(t, validClaims(), testKID)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	v, err := auth0.NewVerifier(ctx, testAudience, testIssuer, down.URL)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	assert.True(t, errors.Is(err, auth0.ErrJWKSUnavailable), "got %v", err)
}
