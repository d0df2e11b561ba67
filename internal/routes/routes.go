package routes

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/internal/auth"
	authHandlers "github.com/vardanian/whisperapi/internal/handlers/auth"
	transcriptionHandlers "github.com/vardanian/whisperapi/internal/handlers/transcription"
	"github.com/vardanian/whisperapi/internal/middleware"
	"github.com/vardanian/whisperapi/internal/pkg/response"
	"github.com/vardanian/whisperapi/internal/repositories"
	"github.com/vardanian/whisperapi/internal/services/progress"
	sheetsService "github.com/vardanian/whisperapi/internal/services/sheets"
	"github.com/vardanian/whisperapi/internal/services/whisper"
)

// Setup инициализирует сервисы и возвращает настроенный маршрутизатор.
func Setup(cfg *config.Config, database *sql.DB, redisClient *redis.Client) *chi.Mux {
	jwtService, err := auth.NewJWTService(cfg.JwtSecret, cfg.JwtAlgorithm, cfg.JwtExpiresMinutes)
	if err != nil {
		// В prod сюда не дойдёт: Validate() уже остановил процесс.
		log.Fatalf("JWT service init failed: %v", err)
	}
	allowList := auth.NewAllowList(cfg.AllowedUsernames)

	var replayGuard auth.ReplayGuard = auth.NoopReplayGuard{}
	if redisClient != nil {
		replayGuard = auth.NewRedisReplayGuard(redisClient)
	}

	whisperClient := whisper.NewClient(cfg.WhisperAPIKey, cfg.WhisperAPIURL)
	cache := whisper.NewCache(redisClient, 0)
	hub := progress.NewHub()

	exporter, err := sheetsService.NewExporter(context.Background(), cfg.GoogleCredentialsFile, cfg.GoogleSheetsID)
	if err != nil {
		log.Printf("Google Sheets export disabled: %v", err)
		exporter = nil
	}

	repo := repositories.NewTranscriptionRepository(database)
	authHandler := authHandlers.NewAuthHandler(cfg, jwtService, allowList, replayGuard)
	transcriptionHandler := transcriptionHandlers.NewTranscriptionHandler(cfg, repo, whisperClient, cache, hub, exporter)

	router := chi.NewRouter()
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// Публичные маршруты
	router.Post("/auth", authHandler.AuthHandler)
	router.Post("/webapp-auth", authHandler.WebAppAuthHandler)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "env": cfg.Env})
	})

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticator(jwtService, allowList))

		r.Post("/api/upload", transcriptionHandler.UploadHandler)
		r.Post("/api/upload/file", transcriptionHandler.UploadFileHandler)
		r.Get("/api/history", transcriptionHandler.HistoryHandler)
		r.Get("/api/history/export", transcriptionHandler.ExportHistoryHandler)
		r.Get("/ws/progress", transcriptionHandler.ProgressHandler)
	})

	return router
}
