package feed

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/telemetryd/internal/logger"
	"codeberg.org/mutker/telemetryd/internal/session"
)

const broadcastBufferSize = 64

// Hub fans session snapshots out to every connected WebSocket client.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	mu         sync.RWMutex
	log        logger.Logger
	now        func() time.Time
	done       chan struct{}
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Default().With("feed")
	}
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		log:        log,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.log.Info().
				Str("client_id", c.id).
				Str("remote_addr", c.remoteAddr).
				Int("clients", count).
				Msg("Feed client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Info().
					Str("client_id", c.id).
					Dur("connected_for", time.Since(c.connectedAt)).
					Int("clients", len(h.clients)).
					Msg("Feed client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// slow consumer, drop it rather than stall the feed
					delete(h.clients, c)
					close(c.send)
					h.log.Warn().Str("client_id", c.id).Msg("Dropping slow feed client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues snap for every client. It never blocks the caller; when the
// broadcast queue is full the update is skipped, the next one supersedes it.
func (h *Hub) Publish(snap session.Snapshot) {
	h.publish(MessageSnapshot, &snap)
}

// PublishStale tells clients the link just went stale.
func (h *Hub) PublishStale(snap session.Snapshot) {
	h.publish(MessageStale, &snap)
}

func (h *Hub) publish(msgType string, snap *session.Snapshot) {
	message, err := encode(msgType, snap, h.now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode feed message")
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.Debug().Str("type", msgType).Msg("Feed queue full, skipping update")
	}
}

func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
