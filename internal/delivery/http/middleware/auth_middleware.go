package middleware

import (
	"strings"

	"candidate-tracker-backend/internal/domain"
	"candidate-tracker-backend/pkg/apperror"
	"candidate-tracker-backend/pkg/auth"
	"candidate-tracker-backend/pkg/logger"
	"candidate-tracker-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token and returns its identity claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator resolves bearer tokens into local users.
type Authenticator struct {
	verifier TokenVerifier
	authUC   domain.AuthUsecase
	secLog   *security.SecurityLogger
}

func NewAuthenticator(verifier TokenVerifier, authUC domain.AuthUsecase, secLog *security.SecurityLogger) *Authenticator {
	return &Authenticator{verifier: verifier, authUC: authUC, secLog: secLog}
}

// RequireAuth rejects requests without a valid token with 401.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			a.secLog.LogUnauthorizedAccess(c.Request.Context(), c.ClientIP(), c.GetString("RequestID"), "missing_token")
			c.Error(apperror.Unauthorized("Not authorized to access this route"))
			c.Abort()
			return
		}
		if err := a.attach(c, token); err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if err := a.attach(c, token); err != nil {
				logger.Log.Debug("Ignoring invalid optional token", "request_id", c.GetString("RequestID"), "error", err)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(string(domain.KeyUserRole)) != role {
			c.Error(apperror.Forbidden("You do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *Authenticator) attach(c *gin.Context, token string) error {
	claims, err := a.verifier.Verify(token)
	if err != nil {
		a.secLog.LogUnauthorizedAccess(c.Request.Context(), c.ClientIP(), c.GetString("RequestID"), "invalid_token")
		return apperror.Unauthorized("Not authorized to access this route")
	}

	// The role comes from the local user row, never from the token
	user, err := a.authUC.EnsureUserExists(c.Request.Context(), &domain.User{
		ID:    claims.Subject,
		Email: strings.ToLower(claims.Email),
		Name:  claims.Name,
	})
	if err != nil {
		return err
	}

	actor := domain.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
	c.Set(string(domain.KeyUserID), actor.UserID)
	c.Set(string(domain.KeyUserEmail), actor.Email)
	c.Set(string(domain.KeyUserRole), actor.Role)
	c.Request = c.Request.WithContext(domain.WithActor(c.Request.Context(), actor))
	return nil
}

// bearerToken reads the Authorization header, falling back to the auth_token cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return ""
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
