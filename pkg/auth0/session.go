package auth0

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when a callback carries no access token.
	ErrNoToken     = errors.New("auth0: no access_token in callback")
	// ErrLoginDenied is returned when the tenant redirected back with an error.
	ErrLoginDenied = errors.New("auth0: login failed")
)

// TokenFromCallback extracts the access token from the URL the tenant
// redirected to after login. raw may be the full callback URL, its
// fragment ("#access_token=...") or the bare fragment.
func TokenFromCallback(raw string) (string, error) {
	fragment := strings.TrimSpace(raw)
	if i := strings.Index(fragment, "#"); i >= 0 {
		fragment = fragment[i+1:]
	}

	values, err := url.ParseQuery(fragment)
	if err != nil {
		return "", fmt.Errorf("parse callback fragment: %w", err)
	}
	if token := values.Get("access_token"); token != "" {
		return token, nil
	}
	if code := values.Get("error"); code != "" {
		if desc := values.Get("error_description"); desc != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrLoginDenied, code, desc)
		}
		return "", fmt.Errorf("%w: %s", ErrLoginDenied, code)
	}
	return "", ErrNoToken
}

// Session keeps the current access token in a file, the way the browser
// client keeps it in local storage. The payload is decoded but not
// verified; the API verifies every request.
type Session struct {
	path string

	mu     sync.RWMutex
	token  string
	claims *Claims
}

// NewSession creates a session stored at path. Call Load to read it back.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// Load reads the stored token, if any. A missing file is an empty session.
func (s *Session) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.set("")
	}
	if err != nil {
		return fmt.Errorf("read session %s: %w", s.path, err)
	}
	return s.set(strings.TrimSpace(string(data)))
}

// SetToken stores token and decodes its payload. An empty token clears the
// session. The in-memory session only changes once the file is written.
func (s *Session) SetToken(token string) error {
	claims, err := decode(token)
	if err != nil {
		return err
	}

	if token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session %s: %w", s.path, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
		if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
			return fmt.Errorf("write session %s: %w", s.path, err)
		}
	}

	s.store(token, claims)
	return nil
}

// Logout forgets the token.
func (s *Session) Logout() error {
	return s.SetToken("")
}

// Token returns the active token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claims returns the decoded payload, or nil without a token.
func (s *Session) Claims() *Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// Can reports whether the token grants permission.
func (s *Session) Can(permission string) bool {
	claims := s.Claims()
	return claims != nil && len(claims.Permissions) > 0 && slices.Contains(claims.Permissions, permission)
}

func (s *Session) set(token string) error {
	claims, err := decode(token)
	if err != nil {
		return err
	}
	s.store(token, claims)
	return nil
}

func (s *Session) store(token string, claims *Claims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.claims = claims
}

// decode returns nil claims for the empty token.
func decode(token string) (*Claims, error) {
	if token == "" {
		return nil, nil
	}
	return DecodeUnverified(token)
}

// DecodeUnverified parses the token payload without checking the signature.
func DecodeUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}
