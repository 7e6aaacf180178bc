package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newTestMaker() *MakerImpl {
	return NewMaker(testSecret, 2*time.Hour, 168*time.Hour, 30*time.Minute)
}

func TestMaker_AccessToken_RoundTrip(t *testing.T) {
	maker := newTestMaker()

	token, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "+265991234567")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "+265991234567", claims.Phone)
	assert.Equal(t, KindAccess, claims.TokenKind)
}

func TestMaker_RefreshToken_RoundTrip(t *testing.T) {
	maker := newTestMaker()

	token, err := maker.GenerateRefreshToken("alice")
	require.NoError(t, err)

	claims, err := maker.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, KindRefresh, claims.TokenKind)
}

func TestMaker_ResetToken_RoundTrip(t *testing.T) {
	maker := newTestMaker()

	token, err := maker.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	claims, err := maker.ParseResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, KindReset, claims.TokenKind)
}

func TestMaker_KindMismatch(t *testing.T) {
	maker := newTestMaker()

	access, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)
	refresh, err := maker.GenerateRefreshToken("alice")
	require.NoError(t, err)
	reset, err := maker.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		parse func() error
	}{
		{"refresh token as access", func() error {
			_, err := maker.ParseAccessToken(refresh)
			return err
		}},
		{"reset token as access", func() error {
			_, err := maker.ParseAccessToken(reset)
			return err
		}},
		{"access token as refresh", func() error {
			_, err := maker.ParseRefreshToken(access)
			return err
		}},
		{"access token as reset", func() error {
			_, err := maker.ParseResetToken(access)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.parse(), ErrTokenKindMismatch)
		})
	}
}

func TestMaker_ExpiredToken(t *testing.T) {
	maker := NewMaker(testSecret, -time.Minute, -time.Minute, -time.Minute)

	token, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = maker.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestMaker_WrongSecret(t *testing.T) {
	maker := newTestMaker()
	other := NewMaker("another-secret", 2*time.Hour, 168*time.Hour, 30*time.Minute)

	token, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = other.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMaker_GarbageToken(t *testing.T) {
	maker := newTestMaker()

	_, err := maker.ParseAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = maker.ParseRefreshToken("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
