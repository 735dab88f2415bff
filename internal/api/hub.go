package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/p-n-ai/pai-lms/internal/progress"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub fans progress events out to WebSocket subscribers. It implements
// progress.EventLogger; a subscriber that falls behind is disconnected
// rather than slowing the store down.
type Hub struct {
	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex
}

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// LogEvent broadcasts the event to every subscriber.
func (h *Hub) LogEvent(event progress.Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		select {
		case s.msgs <- msg:
		default:
			go s.closeSlow()
		}
	}
	return nil
}

// Subscribers is the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP upgrades the request and streams events until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	s := &subscriber{msgs: make(chan []byte, subscriberBuffer)}
	var once sync.Once
	s.closeSlow = func() {
		once.Do(func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with events")
		})
	}
	h.add(s)
	defer h.remove(s)
	slog.Info("event subscriber connected", "remote_addr", r.RemoteAddr)

	// Clients only listen; CloseRead handles their control frames.
	ctx := c.CloseRead(r.Context())
	err = h.stream(ctx, c, s)
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway || ctx.Err() != nil {
		slog.Info("event subscriber disconnected", "remote_addr", r.RemoteAddr)
		return
	}
	if err != nil {
		slog.Warn("event stream failed", "remote_addr", r.RemoteAddr, "error", err)
	}
}

func (h *Hub) stream(ctx context.Context, c *websocket.Conn, s *subscriber) error {
	for {
		select {
		case msg := <-s.msgs:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	h.mu.Unlock()
}
