package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/infrastructure/auth"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"github.com/poinmhs/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTTokenKey      = "jwt_token"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
	DefaultTokenName = "token"
)

// Token extraction errors
var (
	ErrMissingToken        = errors.New("authentication required")
	ErrMalformedAuthHeader = errors.New("invalid authorization header format")
)

// Authenticator resolves an access token into the calling principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*access.Principal, *auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Authenticator Authenticator
	// CookieName is read when no Authorization header is sent
	CookieName string
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(authenticator Authenticator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Authenticator: authenticator,
		CookieName:    DefaultTokenName,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/api/v1/auth/login",
		},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// JWTAuthMiddlewareWithConfig authenticates every request outside the skip
// lists. The principal is stored on the request context for the services
// and on the logger context for request logs.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultTokenName
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range cfg.SkipPaths {
			if path == p {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token, err := ExtractToken(c, cookieName)
		if err != nil {
			msg := "Authentication required"
			if errors.Is(err, ErrMalformedAuthHeader) {
				msg = "Invalid authorization header format"
			}
			abortUnauthorized(c, log, dto.ErrCodeUnauthorized, msg)
			return
		}

		principal, claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				abortUnauthorized(c, log, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
				return
			}
			// Revocation store outage: refuse rather than admit a possibly revoked token
			log.Error("Session check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "Session check is unavailable", c.GetString(logger.RequestIDKey)))
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTTokenKey, token)

		ctx := access.WithPrincipal(c.Request.Context(), principal)
		ctx = logger.WithPrincipal(ctx, principal.SubjectID.String(), string(principal.Role))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ExtractToken returns the bearer token, falling back to the session cookie
func ExtractToken(c *gin.Context, cookieName string) (string, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", ErrMalformedAuthHeader
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, code, message string) {
	log.Debug("Authentication failed",
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		code, message, c.GetString(logger.RequestIDKey)))
}

// GetJWTClaims retrieves the validated token claims
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTToken retrieves the raw access token of the request
func GetJWTToken(c *gin.Context) string {
	return c.GetString(JWTTokenKey)
}
