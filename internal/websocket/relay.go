package websocket

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/openvideohub/videohub/internal/logger"
)

// RelayChannel is the Redis pub/sub channel comment events travel on
const RelayChannel = "videohub:comment_events"

// Relay fans comment events out through Redis pub/sub so viewers connected
// to any server instance receive them.
type Relay struct {
	client redis.UniversalClient
	hub    *Hub
	log    *logger.Logger
}

func NewRelay(client redis.UniversalClient, hub *Hub, log *logger.Logger) *Relay {
	if log == nil {
		log = logger.Default()
	}
	return &Relay{
		client: client,
		hub:    hub,
		log:    log.WithComponent("websocket"),
	}
}

// Publish sends the event to every instance. When Redis is unavailable the
// event is still delivered to local viewers.
func (r *Relay) Publish(ctx context.Context, event *CommentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, RelayChannel, data).Err(); err != nil {
		r.log.Warn(ctx, "relay publish failed, delivering locally", map[string]interface{}{
			"video_id": event.VideoID,
			"error":    err.Error(),
		})
		return r.hub.Publish(ctx, event)
	}
	return nil
}

// Run subscribes to the relay channel and forwards events to the local hub
// until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, RelayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event CommentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warn(ctx, "dropping malformed relay message", map[string]interface{}{"error": err.Error()})
				continue
			}
			if err := r.hub.Publish(ctx, &event); err != nil {
				return
			}
		}
	}
}
