// internal/auth/auth_test.go
package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opening-server/internal/storage"
)

func TestMockRejectsInvalidTokens(t *testing.T) {
	m := NewMock(storage.NewMemoryUserStore())

	_, err := m.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Authenticate(context.Background(), "invalid_token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMockDerivesUserFromToken(t *testing.T) {
	m := NewMock(storage.NewMemoryUserStore())

	tests := []struct {
		token  string
		userID string
	}{
		{"token_alice", "alice"},
		{"demo_session_42", "42"},
		{"plaintoken", "user123"},
	}
	for _, tt := range tests {
		principal, err := m.Authenticate(context.Background(), tt.token)
		require.NoError(t, err, tt.token)
		assert.Equal(t, tt.userID, principal.UserID, tt.token)
		assert.Equal(t, "user"+tt.userID+"@example.com", principal.Email, tt.token)
	}
}

func TestMockMaterializesUser(t *testing.T) {
	users := storage.NewMemoryUserStore()
	m := NewMock(users)

	_, err := m.Authenticate(context.Background(), "token_alice")
	require.NoError(t, err)

	user, ok := users.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "useralice@example.com", user.Email)

	// Repeated logins reuse the stored record.
	_, err = m.Authenticate(context.Background(), "token_alice")
	require.NoError(t, err)
	again, ok := users.Get("alice")
	require.True(t, ok)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)
}

func signToken(t *testing.T, secret, subject, email string, expiry time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
		Email: email,
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("test-secret")

	signed := signToken(t, "test-secret", "alice", "alice@example.com", time.Hour)
	principal, err := j.Authenticate(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.UserID)
	assert.Equal(t, "alice@example.com", principal.Email)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	j := NewJWT("test-secret")

	_, err := j.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Wrong signing secret.
	_, err = j.Authenticate(context.Background(), signToken(t, "other-secret", "alice", "", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired.
	_, err = j.Authenticate(context.Background(), signToken(t, "test-secret", "alice", "", -time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Missing subject claim.
	_, err = j.Authenticate(context.Background(), signToken(t, "test-secret", "", "", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
