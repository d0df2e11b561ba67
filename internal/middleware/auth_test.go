package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vardanian/whisperapi/internal/auth"
)

func newProtected(t *testing.T) (http.Handler, *auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", "HS256", 30)
	require.NoError(t, err)
	allowList := auth.NewAllowList([]string{"alice"})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := GetUsernameFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte("hello " + username))
	})
	return Authenticator(jwtService, allowList)(inner), jwtService
}

func TestAuthenticatorMissingToken(t *testing.T) {
	protected, _ := newProtected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorGarbageToken(t *testing.T) {
	protected, _ := newProtected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorValidToken(t *testing.T) {
	protected, jwtService := newProtected(t)
	token, _, err := jwtService.Issue("alice", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello alice", rec.Body.String())
}

func TestAuthenticatorTokenFromQuery(t *testing.T) {
	protected, jwtService := newProtected(t)
	token, _, err := jwtService.Issue("alice", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws/progress?jwt="+token, nil)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticatorRejectsUnlistedSubject(t *testing.T) {
	protected, jwtService := newProtected(t)
	// Токен валиден, но subject убрали из allow-list.
	token, _, err := jwtService.Issue("bob", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	protected, jwtService := newProtected(t)
	token, _, err := jwtService.Issue("alice", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
