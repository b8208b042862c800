// internal/auth/jwt.go
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWT validates HMAC-signed bearer tokens; the subject claim is the user id.
type JWT struct {
	secret []byte
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret)}
}

func (j *JWT) Authenticate(ctx context.Context, token string) (*Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || tokenClaims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{UserID: tokenClaims.Subject, Email: tokenClaims.Email}, nil
}
