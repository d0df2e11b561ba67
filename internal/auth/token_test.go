package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService("test-secret", "HS256", 30)
	require.NoError(t, err)
	return svc
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)
	now := time.Unix(1700000000, 0)

	token, expiresAt, err := svc.Issue("alice", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), expiresAt)

	username, err := svc.Verify(token, now)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	svc := newTestJWTService(t)
	now := time.Unix(1700000000, 0)
	token, expiresAt, err := svc.Issue("alice", now)
	require.NoError(t, err)

	// Ровно в exp токен ещё валиден.
	username, err := svc.Verify(token, expiresAt)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	// Секундой позже — уже нет.
	_, err = svc.Verify(token, expiresAt.Add(time.Second))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyEmptyToken(t *testing.T) {
	svc := newTestJWTService(t)
	_, err := svc.Verify("", time.Now())
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := newTestJWTService(t)
	other, err := NewJWTService("other-secret", "HS256", 30)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	token, _, err := other.Issue("alice", now)
	require.NoError(t, err)

	_, err = svc.Verify(token, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbageToken(t *testing.T) {
	svc := newTestJWTService(t)
	_, err := svc.Verify("not.a.jwt", time.Now())
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMissingSubject(t *testing.T) {
	svc := newTestJWTService(t)
	now := time.Unix(1700000000, 0)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(signed, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyMissingExpiry(t *testing.T) {
	svc := newTestJWTService(t)
	now := time.Unix(1700000000, 0)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iat": now.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(signed, now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewJWTServiceConfigErrors(t *testing.T) {
	_, err := NewJWTService("", "HS256", 30)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewJWTService("secret", "HS666", 30)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewJWTService("secret", "RS256", 30)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewJWTService("secret", "HS256", 0)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewJWTServiceAcceptsHMACFamily(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		svc, err := NewJWTService("secret", alg, 30)
		require.NoError(t, err, alg)

		now := time.Unix(1700000000, 0)
		token, _, err := svc.Issue("alice", now)
		require.NoError(t, err, alg)

		username, err := svc.Verify(token, now)
		require.NoError(t, err, alg)
		assert.Equal(t, "alice", username)
	}
}
