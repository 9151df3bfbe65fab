package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", "classroom", time.Hour)

	token, expiresAt, err := manager.Issue(42, "teacher")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "teacher", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestTokenManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	manager := NewTokenManager("secret", "classroom", time.Minute)
	token, _, err := manager.Issue(1, "student")
	require.NoError(t, err)

	manager.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = manager.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("another-secret", "classroom", time.Minute)
	foreign, _, err := other.Issue(1, "student")
	require.NoError(t, err)
	_, err = NewTokenManager("secret", "classroom", time.Minute).Parse(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "s3cret-pass"))
	require.False(t, CheckPassword(hash, "wrong"))
}
