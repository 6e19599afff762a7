package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/pkg/auth0"
)

const (
	claimsKey       = "claims"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	verifyTimeout   = 5 * time.Second
)

// TokenVerifier validates a raw access token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth0.Claims, error)
}

// RequiresAuth verifies the bearer token and checks that it grants
// permission. The claims are stored in the context for the handler.
func RequiresAuth(verifier TokenVerifier, permission string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth0.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			abortWithAuthError(c, err, log)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
		defer cancel()

		claims, err := verifier.Verify(ctx, token)
		if err != nil {
			abortWithAuthError(c, err, log)
			return
		}
		if err := auth0.CheckPermissions(claims, permission); err != nil {
			abortWithAuthError(c, err, log)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by RequiresAuth.
func ClaimsFromContext(c *gin.Context) (*auth0.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth0.Claims)
	return claims, ok
}

func abortWithAuthError(c *gin.Context, err error, log logger.Logger) {
	var authErr *auth0.AuthError
	if !errors.As(err, &authErr) {
		log.Error("Token verification failed", logger.Error(err))
		_ = c.Error(err)
		abortWithStatus(c, http.StatusInternalServerError)
		return
	}

	c.AbortWithStatusJSON(authErr.StatusCode, gin.H{
		"success": false,
		"error":   authErr.StatusCode,
		"code":    authErr.Code,
		"message": authErr.Description,
	})
}

// RequestID propagates or assigns an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger logs one structured line per request.
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", c.GetString(requestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
			log.Error("HTTP request with errors", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}
