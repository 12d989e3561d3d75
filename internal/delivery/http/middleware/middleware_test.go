package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/auth"
	"candidate-tracker-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier map[string]*auth.Claims

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type fakeAuthUC struct {
	role string
	err  error
}

func (f *fakeAuthUC) EnsureUserExists(_ context.Context, u *domain.User) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: u.ID, Email: u.Email, Role: f.role}, nil
}

func (f *fakeAuthUC) GetCurrentUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Role: f.role}, nil
}

func newAuthRouter(authn *Authenticator, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	handlers := append(mw, func(c *gin.Context) {
		a := domain.ActorFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": a.UserID, "role": a.Role, "email": a.Email})
	})
	r.GET("/x", handlers...)
	return r
}

func TestAuthenticator(t *testing.T) {
	verifier := fakeVerifier{"good": {Subject: "user-1", Email: "Jane@Example.com"}}

	t.Run("Should attach the stored role from the local user", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{role: domain.RoleAdmin}, security.NopSecurityLogger())
		r := newAuthRouter(authn, authn.RequireAuth())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"user-1","role":"admin","email":"jane@example.com"}`, w.Body.String())
	})

	t.Run("Should read the auth_token cookie", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{role: domain.RoleRecruiter}, nil)
		r := newAuthRouter(authn, authn.RequireAuth())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "good"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject missing, malformed and invalid tokens", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{}, nil)
		r := newAuthRouter(authn, authn.RequireAuth())

		for _, header := range []string{"", "Basic good", "Bearer bad"} {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		}
	})

	t.Run("Should propagate user provisioning failures", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{err: errors.New("db down")}, nil)
		r := newAuthRouter(authn, authn.RequireAuth())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Should continue anonymously on optional auth", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{}, nil)
		r := newAuthRouter(authn, authn.OptionalAuth())

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"","role":"","email":""}`, w.Body.String())
	})

	t.Run("Should enforce the required role", func(t *testing.T) {
		authn := NewAuthenticator(verifier, &fakeAuthUC{role: domain.RoleRecruiter}, nil)
		r := newAuthRouter(authn, authn.RequireAuth(), RequireRole(domain.RoleAdmin))

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/validation", func(c *gin.Context) {
		c.Error(apperror.Validation("Validation failed", []string{"email: Please add a valid email"}))
	})
	r.GET("/wrapped", func(c *gin.Context) {
		c.Error(errors.New("relation does not exist"))
	})

	t.Run("Should render app errors with details", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/validation", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Please add a valid email")
		assert.Contains(t, w.Body.String(), `"request_id"`)
	})

	t.Run("Should not leak internal errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wrapped", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "relation")
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, domain.RequestIDFromContext(c.Request.Context()))
	})

	t.Run("Should reuse a well-formed incoming id", func(t *testing.T) {
		id := "0b6f3a52-5a62-4d55-9f38-7d1a0e3d6a11"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, id, w.Body.String())
		assert.Equal(t, id, w.Header().Get(RequestIDHeader))
	})

	t.Run("Should replace a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, "<script>", w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Should reject requests over the in-memory limit", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(RateLimitConfig{
			Limit:     2,
			Window:    time.Minute,
			KeyPrefix: "test:",
			KeyFunc:   func(c *gin.Context) string { return "same" },
		}))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, w.Code)
			if i == 2 {
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
			}
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}
