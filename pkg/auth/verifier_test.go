package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length-123"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(testSecret, nil)
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("Should accept a valid HS256 token", func(t *testing.T) {
		claims, err := v.Verify(sign(t, jwt.MapClaims{
			"sub": "user-1", "email": "rec@example.com", "exp": exp,
			"user_metadata": map[string]interface{}{"full_name": "Rita Recruiter"},
		}, testSecret))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "rec@example.com", claims.Email)
		assert.Equal(t, "Rita Recruiter", claims.Name)
	})

	t.Run("Should reject a wrong signature", func(t *testing.T) {
		_, err := v.Verify(sign(t, jwt.MapClaims{"sub": "user-1", "exp": exp}, "another-secret-of-similar-length"))
		assert.Error(t, err)
	})

	t.Run("Should reject expired or exp-less tokens", func(t *testing.T) {
		_, err := v.Verify(sign(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Minute).Unix()}, testSecret))
		assert.Error(t, err)
		_, err = v.Verify(sign(t, jwt.MapClaims{"sub": "user-1"}, testSecret))
		assert.Error(t, err)
	})

	t.Run("Should reject tokens without a subject", func(t *testing.T) {
		_, err := v.Verify(sign(t, jwt.MapClaims{"exp": exp}, testSecret))
		assert.Error(t, err)
	})

	t.Run("Should refuse HS256 when no secret is configured", func(t *testing.T) {
		_, err := NewVerifier("", nil).Verify(sign(t, jwt.MapClaims{"sub": "u", "exp": exp}, testSecret))
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
