package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/infrastructure/auth"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
)

const (
	// SessionKey is the gin context key holding the session.Session.
	SessionKey = "session"

	// DefaultSessionCookie is the cookie the admin panel stores its token in.
	DefaultSessionCookie = "admin_session"

	bearerPrefix = "Bearer "
)

// TokenParser turns a presented token into a session.
type TokenParser interface {
	Parse(token string) (session.Session, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Parser     TokenParser
	CookieName string
	Logger     *zap.Logger
}

// SessionAuth builds the request's session.Session from a bearer token or,
// failing that, the session cookie. Requests without a valid token are
// rejected with 401.
func SessionAuth(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := extractToken(c, cfg.CookieName)
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		sess, err := cfg.Parser.Parse(token)
		if err != nil {
			cfg.Logger.Debug("Rejected session token",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Session expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid session token")
			return
		}

		c.Set(SessionKey, sess)
		c.Request = c.Request.WithContext(logger.WithUsername(c.Request.Context(), sess.Username))
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}

// RequireRole lets only sessions with one of roles through.
func RequireRole(roles ...session.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, r := range roles {
			if sess.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.ErrCodeForbidden, "Your role cannot perform this action", GetRequestID(c)))
	}
}

// GetSession returns the session set by SessionAuth.
func GetSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok
}
