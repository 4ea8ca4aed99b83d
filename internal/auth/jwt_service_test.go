package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.Issue(42)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, TokenExpiry, lifetime)
}

func TestJWTService_VerifyRejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	valid, err := svc.Issue(7)
	require.NoError(t, err)

	issuedLongAgo := NewJWTService("test-secret")
	issuedLongAgo.now = func() time.Time { return time.Now().Add(-15 * 24 * time.Hour) }
	expired, err := issuedLongAgo.Issue(7)
	require.NoError(t, err)

	forged, err := NewJWTService("other-secret").Issue(7)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	zeroUser, err := svc.Issue(0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", forged},
		{"none algorithm", noneToken},
		{"malformed", "not-a-jwt"},
		{"truncated", valid[:len(valid)-4]},
		{"zero user id", zeroUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, VerifyPassword("password123", hash))
	assert.False(t, VerifyPassword("password124", hash))
	assert.False(t, VerifyPassword("password123", "not-a-hash"))
}
