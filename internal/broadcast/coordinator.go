package broadcast

import (
	"context"
	"encoding/json"

	"chat-room-service/internal/logging"
	"chat-room-service/internal/models"
	"chat-room-service/internal/observability"
)

const messageEventsRoutingKey = "chat_events.messages"

// Broadcaster fans a payload out to a room's live subscribers. *ws.Hub
// satisfies it.
type Broadcaster interface {
	Broadcast(roomID string, payload []byte)
}

// Coordinator bridges persistence completion to live delivery. It is
// invoked only after a message is durably stored; it never retries and
// never surfaces delivery failures to the sender.
type Coordinator struct {
	hub Broadcaster
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(hub Broadcaster) *Coordinator {
	return &Coordinator{hub: hub}
}

// MessageStored pushes the stored message to every live subscriber of
// its room. A room with no subscribers is a no-op; the message stays
// queryable through the message history either way.
func (c *Coordinator) MessageStored(ctx context.Context, msg models.ChatMessage) {
	event := models.NewRoomEvent(msg)
	payload, err := json.Marshal(event)
	if err != nil {
		logging.L().Error().Err(err).Str("message_id", msg.ID).Msg("failed to encode room event")
		return
	}

	c.hub.Broadcast(msg.ChatRoomID, payload)

	_ = observability.PublishEvent(ctx, messageEventsRoutingKey, observability.EventEnvelope{
		EventType: "chat_events",
		EventName: "message_sent",
		Payload:   event,
	}, nil)
}
