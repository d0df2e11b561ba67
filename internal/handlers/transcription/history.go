package transcription

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vardanian/whisperapi/internal/middleware"
	"github.com/vardanian/whisperapi/internal/pkg/response"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// HistoryHandler возвращает последние записи пользователя.
func (h *TranscriptionHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	limit := historyLimit(r)
	records, err := h.repo.ListByUsername(r.Context(), username, limit)
	if err != nil {
		log.Printf("Database error in history: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	items := make([]map[string]interface{}, 0, len(records))
	for _, t := range records {
		items = append(items, map[string]interface{}{
			"filename":      t.Filename,
			"created_at":    t.CreatedAt,
			"output_format": t.OutputFormat,
			"transcript":    t.Transcript,
		})
	}
	response.RespondWithJSON(w, http.StatusOK, items)
}

// ExportHistoryHandler отдаёт историю пользователя как .xlsx.
func (h *TranscriptionHandler) ExportHistoryHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	records, err := h.repo.ListByUsername(r.Context(), username, historyLimit(r))
	if err != nil {
		log.Printf("Database error in history export: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Created At", "Filename", "Output Format", "Transcript"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to build export")
		return
	}
	for i, t := range records {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			t.CreatedAt.Format(time.RFC3339),
			t.Filename,
			t.OutputFormat,
			t.Transcript,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Failed to build export")
			return
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=transcriptions.xlsx")
	if err := f.Write(w); err != nil {
		log.Printf("Failed to write xlsx export: %v", err)
	}
}

func historyLimit(r *http.Request) int {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit
}
