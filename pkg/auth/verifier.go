package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when a token uses a signing method with no key source.
var ErrNotConfigured = errors.New("auth: no key configured for token signing method")

// Claims are the identity fields the API relies on.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Verifier validates bearer tokens: HS256 with a shared secret, RS256 against a JWKS.
type Verifier struct {
	secret []byte
	jwks   *Provider
}

// NewVerifier accepts either key source; both may be set.
func NewVerifier(secret string, jwks *Provider) *Verifier {
	v := &Verifier{jwks: jwks}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.secret == nil {
			return nil, ErrNotConfigured
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.jwks == nil {
			return nil, ErrNotConfigured
		}
		return v.jwks.KeyFunc(token)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// Verify parses and validates tokenString. Expiry is enforced; sub is required.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc,
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := mc.GetSubject()
	if sub == "" {
		return nil, errors.New("token has no subject")
	}
	email, _ := mc["email"].(string)
	name, _ := mc["name"].(string)
	if name == "" {
		if meta, ok := mc["user_metadata"].(map[string]interface{}); ok {
			name, _ = meta["full_name"].(string)
		}
	}

	return &Claims{Subject: sub, Email: email, Name: name}, nil
}
