package transcription

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/internal/middleware"
	"github.com/vardanian/whisperapi/internal/pkg/response"
	"github.com/vardanian/whisperapi/internal/repositories"
	"github.com/vardanian/whisperapi/internal/services/progress"
	sheetsService "github.com/vardanian/whisperapi/internal/services/sheets"
	"github.com/vardanian/whisperapi/internal/services/whisper"
	"github.com/vardanian/whisperapi/internal/transcript"
)

// maxTranscriptLen ограничивает размер сохраняемого текста.
const maxTranscriptLen = 50000

type TranscriptionHandler struct {
	cfg      *config.Config
	repo     *repositories.TranscriptionRepository
	client   *whisper.Client
	cache    *whisper.Cache
	hub      *progress.Hub
	exporter *sheetsService.Exporter
}

func NewTranscriptionHandler(
	cfg *config.Config,
	repo *repositories.TranscriptionRepository,
	client *whisper.Client,
	cache *whisper.Cache,
	hub *progress.Hub,
	exporter *sheetsService.Exporter,
) *TranscriptionHandler {
	return &TranscriptionHandler{
		cfg:      cfg,
		repo:     repo,
		client:   client,
		cache:    cache,
		hub:      hub,
		exporter: exporter,
	}
}

// UploadHandler принимает аудиофайл и возвращает транскрипт в запрошенном формате.
func (h *TranscriptionHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	filename, audio, params, outputFormat, errMsg := h.parseUpload(r)
	if errMsg != "" {
		response.RespondWithError(w, http.StatusBadRequest, errMsg)
		return
	}

	content, err := h.transcribe(w, r, username, filename, audio, params, outputFormat)
	if err != nil {
		return // ответ уже записан
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message":       "Transcription completed successfully",
		"filename":      filename,
		"output_format": outputFormat,
		"transcript":    content,
	})
}

// UploadFileHandler — то же, но отдаёт Markdown как скачиваемый файл.
func (h *TranscriptionHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	filename, audio, params, _, errMsg := h.parseUpload(r)
	if errMsg != "" {
		response.RespondWithError(w, http.StatusBadRequest, errMsg)
		return
	}

	markdown, err := h.transcribe(w, r, username, filename, audio, params, transcript.FormatMarkdown)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.md", sanitizeFilename(filename)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(markdown))
}

// transcribe выполняет общий конвейер: кэш -> Whisper API -> рендер ->
// сохранение. При ошибке сам пишет HTTP-ответ и возвращает err != nil.
func (h *TranscriptionHandler) transcribe(w http.ResponseWriter, r *http.Request, username, filename string, audio []byte, params whisper.Params, outputFormat string) (string, error) {
	ctx := r.Context()

	h.hub.Publish(username, filename, progress.StatusTranscribing, "")
	log.Printf("Processing upload: %s for user: %s", filename, username)

	cacheKey := whisper.Key(audio, params)
	result, cached := h.cache.Get(ctx, cacheKey)
	if cached {
		log.Printf("Cache hit for %s", filename)
	} else {
		var err error
		result, err = h.client.Transcribe(ctx, filename, audio, params)
		if err != nil {
			log.Printf("Whisper API error: %v", err)
			h.hub.Publish(username, filename, progress.StatusFailed, "transcription failed")
			response.RespondWithError(w, http.StatusBadRequest, "Transcription failed")
			return "", err
		}
		h.cache.Put(ctx, cacheKey, result)
	}

	content, err := transcript.Render(outputFormat, result)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", err
	}
	if len(content) > maxTranscriptLen {
		content = content[:maxTranscriptLen]
	}

	record := &repositories.Transcription{
		Username:     username,
		Filename:     filename,
		OutputFormat: outputFormat,
		Transcript:   content,
	}
	if err := h.repo.Save(ctx, record); err != nil {
		// Результат возвращаем даже при ошибке записи в базу.
		log.Printf("Database save error: %v", err)
	} else if h.exporter != nil {
		if err := h.exporter.Append(ctx, []interface{}{
			record.CreatedAt.Format(time.RFC3339), username, filename, outputFormat,
		}); err != nil {
			log.Printf("Sheets export error: %v", err)
		}
	}

	h.hub.Publish(username, filename, progress.StatusDone, "")
	return content, nil
}

// parseUpload читает multipart-форму и параметры транскрипции с
// дефолтами из конфигурации.
func (h *TranscriptionHandler) parseUpload(r *http.Request) (filename string, audio []byte, params whisper.Params, outputFormat string, errMsg string) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, params, "", "File not found in request"
	}
	defer file.Close()

	if header.Filename == "" {
		return "", nil, params, "", "No filename provided"
	}

	audio, err = io.ReadAll(io.LimitReader(file, whisper.MaxFileSize+1))
	if err != nil {
		return "", nil, params, "", "Failed to read file"
	}
	if err := whisper.ValidateAudio(header.Filename, int64(len(audio))); err != nil {
		return "", nil, params, "", err.Error()
	}

	params = whisper.Params{
		Language:               formValue(r, "language", h.cfg.DefaultLanguage),
		Prompt:                 r.FormValue("prompt"),
		SpeakerLabels:          formBool(r, "speaker_labels", h.cfg.DefaultSpeakerLabels),
		Translate:              formBool(r, "translate", h.cfg.DefaultTranslate),
		TimestampGranularities: formGranularities(r),
		MinSpeakers:            formInt(r, "min_speakers", h.cfg.DefaultMinSpeakers),
		MaxSpeakers:            formInt(r, "max_speakers", h.cfg.DefaultMaxSpeakers),
		CallbackURL:            formCallbackURL(r),
	}
	if params.MinSpeakers < 1 || params.MaxSpeakers < 1 {
		return "", nil, params, "", "Speaker counts must be positive integers"
	}
	if params.MinSpeakers > params.MaxSpeakers {
		return "", nil, params, "", "min_speakers cannot be greater than max_speakers"
	}

	outputFormat = formValue(r, "output_format", h.cfg.DefaultOutputFormat)
	if !transcript.ValidFormat(outputFormat) {
		return "", nil, params, "", "Unsupported output format: " + outputFormat
	}

	return header.Filename, audio, params, outputFormat, ""
}

func formValue(r *http.Request, name, fallback string) string {
	if v := r.FormValue(name); v != "" {
		return v
	}
	return fallback
}

func formBool(r *http.Request, name string, fallback bool) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "1", "true", "t", "yes", "on":
		return true
	case "0", "false", "f", "no", "off":
		return false
	}
	return fallback
}

func formInt(r *http.Request, name string, fallback int) int {
	if v, err := strconv.Atoi(r.FormValue(name)); err == nil {
		return v
	}
	return fallback
}

func formGranularities(r *http.Request) []string {
	raw := r.Form["timestamp_granularities"]
	var result []string
	for _, g := range raw {
		if g == "segment" || g == "word" {
			result = append(result, g)
		}
	}
	if len(result) == 0 {
		result = []string{"segment"}
	}
	return result
}

func formCallbackURL(r *http.Request) string {
	v := r.FormValue("callback_url")
	if v == "" || v == "None" {
		return ""
	}
	return v
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, c := range name {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '.' || c == '_' || c == '-' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return "transcript"
	}
	return b.String()
}
