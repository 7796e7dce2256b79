package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-must-be-at-least-32-characters-long"

func newManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewJWTManager(t *testing.T) {
	_, err := NewJWTManager("short", time.Hour)
	assert.ErrorIs(t, err, ErrShortSecret)

	m, err := NewJWTManager(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenDuration, m.TokenDuration())
}

func TestGenerateToken(t *testing.T) {
	m := newManager(t)

	tests := []struct {
		name    string
		subject string
		role    string
		wantErr error
	}{
		{"operator", "alice", RoleOperator, nil},
		{"viewer", "bob", RoleViewer, nil},
		{"empty subject", "", RoleViewer, ErrEmptySubject},
		{"empty role", "carol", "", ErrInvalidRole},
		{"unknown role", "dave", "admin", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.GenerateToken(tt.subject, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			claims, err := m.ValidateToken(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, claims.Subject)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, tt.role == RoleOperator, claims.CanWrite())
		})
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewJWTManager("another-secret-key-that-is-also-32-chars-long", time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("alice", RoleOperator)
	require.NoError(t, err)
	_, err = m.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	m := newManager(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken("alice", RoleViewer)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongAlgorithm(t *testing.T) {
	m := newManager(t)
	claims := Claims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenBadRole(t *testing.T) {
	m := newManager(t)
	claims := Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
