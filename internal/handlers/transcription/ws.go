package transcription

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vardanian/whisperapi/internal/middleware"
	"github.com/vardanian/whisperapi/internal/pkg/response"
	"github.com/vardanian/whisperapi/internal/services/progress"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressHandler подписывает клиента на события прогресса его загрузок.
// Токен передаётся query-параметром jwt и уже проверен middleware.
func (h *TranscriptionHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	client := &progress.Client{
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Username: username,
	}
	h.hub.Register(client)

	go h.hub.ReadPump(client)
	go h.hub.WritePump(client)
}
