package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/infrastructure/auth"
	"github.com/spoolgate/backend/internal/infrastructure/logger"
	"github.com/spoolgate/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	IdentityKey   = "auth_identity"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// DefaultAuthCookie is the cookie the token is read from when no
// Authorization header is sent
const DefaultAuthCookie = "auth-token"

// TokenVerifier resolves a bearer token to an identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Verifier is required for token validation
	Verifier TokenVerifier
	// CookieName is checked when the Authorization header is absent
	CookieName string
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(verifier TokenVerifier, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		Verifier:   verifier,
		CookieName: cookieName,
		SkipPaths:  []string{"/api/v1/auth/login"},
		Logger:     log,
	})
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultAuthCookie
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, err := extractToken(c, cfg.CookieName)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		identity, err := cfg.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}

		c.Set(IdentityKey, identity)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUsername(ctx, logger.FromContext(ctx), identity.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// extractToken reads the bearer header, falling back to the auth cookie
func extractToken(c *gin.Context, cookieName string) (string, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", auth.ErrInvalidToken
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			return "", auth.ErrInvalidToken
		}
		return token, nil
	}

	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errMissingToken
}

var errMissingToken = errors.New("missing token")

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	cfg.Logger.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	message := "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		message = "Token has been revoked"
	case errors.Is(err, errMissingToken):
	default:
		message = "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// GetIdentity retrieves the authenticated identity from gin.Context
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	if v, exists := c.Get(IdentityKey); exists {
		if identity, ok := v.(auth.Identity); ok {
			return identity, true
		}
	}
	return auth.Identity{}, false
}

// RequireAdmin rejects callers without the admin role. It must run after
// JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", getRequestID(c)))
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Administrator role required", getRequestID(c)))
			return
		}
		c.Next()
	}
}
