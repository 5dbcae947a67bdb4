package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/infrastructure/auth"
	"github.com/Alex240101/oxapampa/internal/infrastructure/config"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
)

func newJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:     "middleware-test-secret-32-bytes!!",
		Issuer:     "oxapampa-test",
		Expiration: time.Hour,
	})
}

func sessionRouter(parser TokenParser) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), SessionAuth(SessionConfig{Parser: parser}))
	r.GET("/me", func(c *gin.Context) {
		sess, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"username":     sess.Username,
			"role":         sess.Role,
			"ctx_username": logger.GetUsername(c.Request.Context()),
		})
	})
	admin := r.Group("/admin", RequireRole(session.RoleAdmin))
	admin.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestSessionAuth_BearerAndCookie(t *testing.T) {
	svc := newJWT()
	issued, err := svc.Issue(session.Session{UserID: uuid.New(), Username: "rosa", Role: session.RoleSeller})
	require.NoError(t, err)
	r := sessionRouter(svc)

	t.Run("bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"rosa","role":"seller","ctx_username":"rosa"}`, w.Body.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: issued.Token})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSessionAuth_Rejections(t *testing.T) {
	svc := newJWT()
	r := sessionRouter(svc)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"no token", "", dto.ErrCodeUnauthorized},
		{"basic scheme", "Basic cm9zYTpwdw==", dto.ErrCodeUnauthorized},
		{"garbage", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("expired", func(t *testing.T) {
		parser := parserFunc(func(string) (session.Session, error) { return session.Session{}, auth.ErrExpiredToken })
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer stale")
		sessionRouter(parser).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
	})
}

type parserFunc func(string) (session.Session, error)

func (f parserFunc) Parse(token string) (session.Session, error) { return f(token) }

func TestRequireRole(t *testing.T) {
	svc := newJWT()
	r := sessionRouter(svc)

	for _, tt := range []struct {
		role session.Role
		want int
	}{
		{session.RoleAdmin, http.StatusOK},
		{session.RoleSeller, http.StatusForbidden},
	} {
		t.Run(string(tt.role), func(t *testing.T) {
			issued, err := svc.Issue(session.Session{UserID: uuid.New(), Username: "u", Role: tt.role})
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+issued.Token)
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
