// internal/auth/mock.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opening-server/internal/models"
	"opening-server/internal/storage"
)

// Mock accepts any token except the literal "invalid_token" and derives the
// user id from the token's last underscore-separated segment, defaulting to
// user123. Users are materialized into the user store on first sight. Demo
// behavior only; production deployments configure the jwt authenticator.
type Mock struct {
	users storage.UserStore
}

func NewMock(users storage.UserStore) *Mock {
	return &Mock{users: users}
}

func (m *Mock) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" || token == "invalid_token" {
		return nil, ErrInvalidToken
	}

	userID := "user123"
	if idx := strings.LastIndex(token, "_"); idx >= 0 && idx < len(token)-1 {
		userID = token[idx+1:]
	}

	user := m.users.Ensure(models.User{
		ID:        userID,
		Email:     fmt.Sprintf("user%s@example.com", userID),
		CreatedAt: time.Now(),
	})

	return &Principal{UserID: user.ID, Email: user.Email}, nil
}
