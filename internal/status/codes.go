package status

import (
	"sync"
	"time"
)

const (
	Idle      = "IDLE"    // Ready to record
	Consent   = "CONSENT" // Waiting for permissions or capture consent
	Recording = "REC"     // Recording in progress
	Saved     = "SAVED"   // File written and indexed
	Error     = "ERROR"   // Last attempt failed
)

// Message wraps a status code and message text
type Message struct {
	Code string    `json:"code"`
	Text string    `json:"text"`
	Path string    `json:"path,omitempty"`
	Time time.Time `json:"time"`
}

// Hub fans status messages out to every subscriber. Slow subscribers miss
// updates instead of blocking the sender.
type Hub struct {
	mu   sync.Mutex
	subs []chan Message
	last Message
}

func NewHub() *Hub {
	return &Hub{last: Message{Code: Idle, Time: time.Now()}}
}

// Subscribe returns a channel receiving every message sent after the call.
func (h *Hub) Subscribe() <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Message, 10)
	h.subs = append(h.subs, ch)
	return ch
}

// Send records msg as the current status and forwards it to subscribers.
func (h *Hub) Send(code, text, path string) {
	msg := Message{Code: code, Text: text, Path: path, Time: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// Channel is full, skip this update
		}
	}
}

// Last returns the most recent message.
func (h *Hub) Last() Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
