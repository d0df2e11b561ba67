package progress

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Статусы обработки загрузки.
const (
	StatusReceived     = "received"
	StatusTranscribing = "transcribing"
	StatusDone         = "done"
	StatusFailed       = "failed"
)

// Event — событие прогресса, доставляемое подписчикам пользователя.
type Event struct {
	Type      string    `json:"type"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	Conn     *websocket.Conn
	Send     chan []byte
	Username string
}

type userEvent struct {
	username string
	payload  []byte
}

// Hub раздаёт события прогресса по websocket. Каждый клиент получает только
// события своего username.
type Hub struct {
	clients    map[*Client]bool
	events     chan userEvent
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	hub := &Hub{
		clients:    make(map[*Client]bool),
		events:     make(chan userEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	go hub.Run()
	return hub
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// Publish отправляет событие всем подключениям username.
func (h *Hub) Publish(username, filename, status, detail string) {
	payload, _ := json.Marshal(Event{
		Type:      "transcription",
		Filename:  filename,
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
	h.events <- userEvent{username: username, payload: payload}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		case ev := <-h.events:
			h.mu.Lock()
			for client := range h.clients {
				if client.Username != ev.username {
					continue
				}
				select {
				case client.Send <- ev.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ReadPump сбрасывает входящие сообщения; соединение только серверное.
func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			client.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			client.Conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}
