// Package hub streams run events to HTTP clients as Server-Sent Events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Named is implemented by events that carry an SSE event name. Other values
// are sent as unnamed "message" events.
type Named interface {
	EventName() string
}

// subscriber is one open /events stream
type subscriber struct {
	id     string
	frames chan []byte
}

// Hub fans broadcast events out to every open stream. A stream that falls
// behind loses frames rather than stalling the others.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	join        chan *subscriber
	leave       chan *subscriber
	events      chan interface{}
	keepAlive   time.Duration
	log         *zap.Logger
}

// New returns a hub; call Run to start delivering events.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		join:        make(chan *subscriber),
		leave:       make(chan *subscriber),
		events:      make(chan interface{}, 256),
		keepAlive:   30 * time.Second,
		log:         logger.Named("hub"),
	}
}

// frame encodes event as one SSE frame
func frame(event interface{}) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if n, ok := event.(Named); ok && n.EventName() != "" {
		return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", n.EventName(), data)), nil
	}
	return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
}

// Run delivers events until ctx is done, then closes every stream.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug("Event stream opened", zap.String("subscriber", s.id), zap.Int("open", n))

		case s := <-h.leave:
			h.mu.Lock()
			h.drop(s)
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug("Event stream closed", zap.String("subscriber", s.id), zap.Int("open", n))

		case event := <-h.events:
			msg, err := frame(event)
			if err != nil {
				h.log.Warn("Unable to encode event", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for s := range h.subscribers {
				select {
				case s.frames <- msg:
				default:
					h.log.Debug("Event stream is behind, dropping frame", zap.String("subscriber", s.id))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.subscribers {
				h.drop(s)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop removes s and closes its frames. h.mu must be held.
func (h *Hub) drop(s *subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.frames)
	}
}

// Broadcast queues event for every open stream. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Broadcast(event interface{}) {
	select {
	case h.events <- event:
	default:
		h.log.Warn("Event queue full, dropping event")
	}
}

// ClientCount returns the number of open streams
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP holds the request open as an event stream
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	s := &subscriber{id: uuid.NewString(), frames: make(chan []byte, 64)}
	select {
	case h.join <- s:
	case <-r.Context().Done():
		return
	}
	defer func() {
		// Run may already have returned
		select {
		case h.leave <- s:
		case <-time.After(time.Second):
		}
	}()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		var msg []byte
		select {
		case f, open := <-s.frames:
			if !open {
				return
			}
			msg = f
		case <-ticker.C:
			msg = []byte(": keepalive\n\n")
		case <-r.Context().Done():
			return
		}
		if _, err := w.Write(msg); err != nil {
			return
		}
		flusher.Flush()
	}
}
