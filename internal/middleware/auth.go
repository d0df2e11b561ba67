package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/vardanian/whisperapi/internal/auth"
	"github.com/vardanian/whisperapi/internal/pkg/response"
)

type contextKey string

const usernameKey contextKey = "username"

// GetUsernameFromContext возвращает username, положенный Authenticator.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// Authenticator проверяет Bearer-токен и членство в allow-list, кладёт
// username в контекст. Токен берётся из заголовка Authorization или, для
// websocket-эндпоинтов, из query-параметра jwt.
func Authenticator(jwtService *auth.JWTService, allowList auth.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := jwtauth.TokenFromHeader(r)
			if tokenString == "" {
				tokenString = jwtauth.TokenFromQuery(r)
			}

			username, err := jwtService.Verify(tokenString, time.Now())
			if err != nil {
				// Конкретная причина — только в лог, клиенту общий 401.
				log.Printf("Rejected token: %v", err)
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if !allowList.Contains(username) {
				log.Printf("Unauthorized user: %s", username)
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
