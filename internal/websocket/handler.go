package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	apperrors "github.com/openvideohub/videohub/internal/errors"
)

// Handler handles WebSocket connections.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. Browsers are accepted from
// allowedOrigins; requests without an Origin header always are.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || allowed[origin]
			},
		},
	}
}

// ServeWS handles GET /api/v1/videos/{id}/live. Each connection receives the
// comments posted to that video while it stays open.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	if videoID == "" {
		apperrors.WriteError(w, apperrors.GetRequestID(r.Context()), apperrors.ValidationError("video id is required"))
		return
	}

	// Upgrade writes its own error response
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn(r.Context(), "websocket upgrade failed", map[string]interface{}{
			"video_id": videoID,
			"error":    err.Error(),
		})
		return
	}

	client := NewClient(h.hub, conn, videoID)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	h.hub.log.Debug(r.Context(), "websocket connected", map[string]interface{}{
		"client_id": client.id,
		"video_id":  videoID,
	})

	// Start the client's read and write pumps
	go client.WritePump()
	go client.ReadPump()
}

// Hub returns the hub instance for external access.
func (h *Handler) Hub() *Hub {
	return h.hub
}
