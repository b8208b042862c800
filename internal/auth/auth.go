// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for missing, malformed or rejected credentials.
var ErrInvalidToken = errors.New("invalid authentication token")

// Principal identifies the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

// Authenticator validates a bearer token and resolves its principal. Which
// implementation is active (mock or jwt) is decided once at startup and
// injected; nothing downstream knows the difference.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}
