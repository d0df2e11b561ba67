package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/internal/auth"
	"github.com/vardanian/whisperapi/internal/pkg/response"
)

// AuthHandler обслуживает POST /auth и POST /webapp-auth.
type AuthHandler struct {
	cfg         *config.Config
	jwtService  *auth.JWTService
	allowList   auth.AllowList
	replayGuard auth.ReplayGuard
}

func NewAuthHandler(cfg *config.Config, jwtService *auth.JWTService, allowList auth.AllowList, guard auth.ReplayGuard) *AuthHandler {
	if guard == nil {
		guard = auth.NoopReplayGuard{}
	}
	return &AuthHandler{
		cfg:         cfg,
		jwtService:  jwtService,
		allowList:   allowList,
		replayGuard: guard,
	}
}

// AuthHandler выдаёт сессионный токен после проверки initData.
func (h *AuthHandler) AuthHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	token, expiresAt, err := h.jwtService.Issue(username, time.Now())
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", username, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.Printf("User authenticated and token issued: %s", username)
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":       token,
		"token_type":         "bearer",
		"username":           username,
		"expires_in_seconds": int64(time.Until(expiresAt).Seconds()),
	})
}

// WebAppAuthHandler — legacy-вариант без выдачи токена: тот же конвейер
// проверки, в ответе только подтверждение.
func (h *AuthHandler) WebAppAuthHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	log.Printf("WebApp authorized user: %s", username)
	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message":  "Authorization successful",
		"username": username,
	})
}

// authenticate прогоняет запрос через конвейер
// initData -> подпись -> replay-guard -> allow-list и возвращает username.
// При отказе сама пишет ответ (generic 401/403) и возвращает ok=false.
func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	if err := r.ParseForm(); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return "", false
	}

	initData := r.FormValue("initData")

	var user *auth.TelegramUser
	if initData == "" {
		// Dev bypass срабатывает только при ENV=dev и отсутствии payload;
		// переданный initData всегда проверяется, даже в dev.
		user = auth.TryBypass(h.cfg.Env, h.cfg.DevUsername)
		if user == nil {
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid Telegram data")
			return "", false
		}
		log.Printf("Dev bypass identity: %s", user.Username)
	} else {
		validated, err := auth.ValidateInitData(initData, h.cfg.BotToken, h.cfg.AuthMaxAge, time.Now())
		if err != nil {
			log.Printf("initData verification failed: %v", err)
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid Telegram data")
			return "", false
		}

		seen, err := h.replayGuard.Seen(r.Context(), auth.PayloadDigest(initData), h.cfg.AuthMaxAge)
		if err != nil {
			// Redis недоступен — пропускаем с записью в лог, не роняем аутентификацию.
			log.Printf("Replay guard unavailable: %v", err)
		} else if seen {
			log.Printf("Replayed initData rejected for user id %d", validated.ID)
			response.RespondWithError(w, http.StatusUnauthorized, "Invalid Telegram data")
			return "", false
		}
		user = validated
	}

	username, err := h.allowList.Authorize(user)
	if err != nil {
		if errors.Is(err, auth.ErrAccessDenied) {
			log.Printf("Auth failed - unauthorized user: %s", user.Username)
			response.RespondWithError(w, http.StatusForbidden, "Access denied")
			return "", false
		}
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid Telegram data")
		return "", false
	}

	return username, true
}
