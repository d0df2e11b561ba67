package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/internal/auth"
)

const testBotToken = "123:ABC"

func signInitData(botToken string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func freshInitData(username string) string {
	return signInitData(testBotToken, map[string]string{
		"query_id":  "AA",
		"user":      `{"id":1,"username":"` + username + `"}`,
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
	})
}

type stubGuard struct {
	seen bool
}

func (g stubGuard) Seen(context.Context, string, time.Duration) (bool, error) {
	return g.seen, nil
}

func newTestHandler(t *testing.T, env string, guard auth.ReplayGuard) *AuthHandler {
	t.Helper()
	cfg := &config.Config{
		Env:               env,
		BotToken:          testBotToken,
		AllowedUsernames:  []string{"alice", "localdev"},
		DevUsername:       "localdev",
		AuthMaxAge:        24 * time.Hour,
		JwtSecret:         "test-secret",
		JwtAlgorithm:      "HS256",
		JwtExpiresMinutes: 30,
	}
	jwtService, err := auth.NewJWTService(cfg.JwtSecret, cfg.JwtAlgorithm, cfg.JwtExpiresMinutes)
	require.NoError(t, err)
	return NewAuthHandler(cfg, jwtService, auth.NewAllowList(cfg.AllowedUsernames), guard)
}

func postAuth(handler http.HandlerFunc, initData string) *httptest.ResponseRecorder {
	form := url.Values{}
	if initData != "" {
		form.Set("initData", initData)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthIssuesToken(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.AuthHandler, freshInitData("alice"))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken      string `json:"access_token"`
		TokenType        string `json:"token_type"`
		Username         string `json:"username"`
		ExpiresInSeconds int64  `json:"expires_in_seconds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, "alice", body.Username)
	assert.InDelta(t, 1800, body.ExpiresInSeconds, 5)

	// Выданный токен проходит проверку и несёт тот же username.
	jwtService, err := auth.NewJWTService("test-secret", "HS256", 30)
	require.NoError(t, err)
	username, err := jwtService.Verify(body.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestAuthNormalizesUsernameCase(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.AuthHandler, freshInitData("Alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestAuthRejectsTamperedPayload(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	initData := freshInitData("alice")
	tampered := strings.Replace(initData, "alice", "admin", 1)

	rec := postAuth(h.AuthHandler, tampered)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Тело не раскрывает, какая именно проверка не прошла.
	assert.Contains(t, rec.Body.String(), "Invalid Telegram data")
}

func TestAuthRejectsUnlistedUser(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.AuthHandler, freshInitData("bob"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied")
}

func TestAuthRejectsMissingPayloadInProd(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.AuthHandler, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDevBypass(t *testing.T) {
	h := newTestHandler(t, "dev", nil)
	rec := postAuth(h.AuthHandler, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"localdev"`)
}

func TestAuthDevStillValidatesSuppliedPayload(t *testing.T) {
	h := newTestHandler(t, "dev", nil)
	initData := freshInitData("alice")
	tampered := strings.Replace(initData, "alice", "admin", 1)

	rec := postAuth(h.AuthHandler, tampered)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsReplayedPayload(t *testing.T) {
	h := newTestHandler(t, "prod", stubGuard{seen: true})
	rec := postAuth(h.AuthHandler, freshInitData("alice"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebAppAuthDoesNotIssueToken(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.WebAppAuthHandler, freshInitData("alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "access_token")
}

func TestWebAppAuthRejectsUnlistedUser(t *testing.T) {
	h := newTestHandler(t, "prod", nil)
	rec := postAuth(h.WebAppAuthHandler, freshInitData("bob"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
