package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{
	ID:       "3f0b7a1e-58a4-4f0e-9f62-3a5e3b7f2c11",
	Email:    "ana@example.com",
	TenantID: "9c1d2e3f-4a5b-4c6d-8e7f-0a1b2c3d4e5f",
	RoleID:   "1b2c3d4e-5f60-4172-8394-a5b6c7d8e9f0",
}

func TestSignVerifyRoundTrip(t *testing.T) {
	manager := NewJWTManager("secret", 7*24*time.Hour)

	token, err := manager.GenerateToken(testIdentity)
	require.NoError(t, err)

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity, claims.Identity)
	assert.Equal(t, testIdentity.ID, claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyAfterTTLFails(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager := NewJWTManager("secret", time.Hour).WithClock(func() time.Time { return now })

	token, err := manager.Sign(testIdentity, 60*time.Second)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = manager.VerifyToken(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = manager.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	token, err := manager.GenerateToken(testIdentity)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		mgr   *JWTManager
	}{
		{"tampered signature", token[:len(token)-2] + "xx", manager},
		{"wrong secret", token, NewJWTManager("other", time.Hour)},
		{"garbage", "not-a-token", manager},
		{"empty", "", manager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mgr.VerifyToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestIdentityIsGlobal(t *testing.T) {
	assert.False(t, testIdentity.IsGlobal())
	assert.True(t, Identity{ID: "x"}.IsGlobal())
}
