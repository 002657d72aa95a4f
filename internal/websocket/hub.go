package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/metrics"
	"github.com/openvideohub/videohub/internal/videoapi"
)

// EventCommentCreated is sent when a comment is added to a video
const EventCommentCreated = "comment.created"

// CommentEvent is a live update pushed to viewers of a video.
type CommentEvent struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	VideoID string           `json:"video_id"`
	Comment videoapi.Comment `json:"comment"`
	SentAt  time.Time        `json:"sent_at"`
}

// NewCommentEvent wraps a freshly created comment
func NewCommentEvent(videoID string, comment videoapi.Comment) *CommentEvent {
	return &CommentEvent{
		ID:      uuid.NewString(),
		Type:    EventCommentCreated,
		VideoID: videoID,
		Comment: comment,
		SentAt:  time.Now().UTC(),
	}
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients by video ID
	clients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast channel for comment events
	broadcast chan *CommentEvent

	// Closed when Run returns
	done chan struct{}

	metrics *metrics.Metrics
	log     *logger.Logger

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub(m *metrics.Metrics, log *logger.Logger) *Hub {
	if m == nil {
		m = metrics.Default()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *CommentEvent, 64),
		done:       make(chan struct{}),
		metrics:    m,
		log:        log.WithComponent("websocket"),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, clients := range h.clients {
				for client := range clients {
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.videoID] == nil {
				h.clients[client.videoID] = make(map[*Client]bool)
			}
			h.clients[client.videoID][client] = true
			h.mu.Unlock()
			h.metrics.IncWSConnections()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			delivered := 0
			for client := range h.clients[message.VideoID] {
				select {
				case client.send <- message:
					delivered++
				default:
					// Client's buffer is full, close the connection
					h.log.Warn(ctx, "dropping slow websocket client", map[string]interface{}{
						"client_id": client.id,
						"video_id":  client.videoID,
					})
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
			h.metrics.Add(metrics.FamilyCommentEvents, uint64(delivered), "event", message.Type)
		}
	}
}

// removeLocked drops a client and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.videoID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.videoID)
	}
	h.metrics.DecWSConnections()
}

// Publish queues an event for every viewer of its video.
func (h *Hub) Publish(ctx context.Context, event *CommentEvent) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients for a video.
func (h *Hub) ClientCount(videoID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[videoID])
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
