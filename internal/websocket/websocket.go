package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/status"
)

// ReloadMessage tells library pages to fetch the list again.
const ReloadMessage = "reload"

// Hub keeps the connected browser clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the connection, sends the current status and keeps the
// client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, current status.Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.ErrorLogger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	if err := conn.WriteJSON(current); err != nil {
		logging.ErrorLogger.Printf("Failed to send initial status: %v", err)
	}
	h.mu.Unlock()

	// Keep the connection alive until it closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// SendStatus sends msg as JSON to every client.
func (h *Hub) SendStatus(msg status.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteJSON(msg); err != nil {
			logging.ErrorLogger.Printf("Error sending status: %v", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

// SendMessage sends a plain text message to every client.
func (h *Hub) SendMessage(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			logging.ErrorLogger.Printf("Error sending message: %v", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
