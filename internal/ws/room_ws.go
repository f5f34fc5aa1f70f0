package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-room-service/internal/auth"
	"chat-room-service/internal/observability"
	"chat-room-service/internal/repositories"
)

const wsEventsRoutingKey = "ws_events.rooms"

// RoomStreamHandler upgrades room event stream connections.
type RoomStreamHandler struct {
	hub     *Hub
	rooms   repositories.RoomRepository
	decoder auth.TokenDecoder
}

// NewRoomStreamHandler constructs a RoomStreamHandler.
func NewRoomStreamHandler(hub *Hub, rooms repositories.RoomRepository, decoder auth.TokenDecoder) *RoomStreamHandler {
	return &RoomStreamHandler{hub: hub, rooms: rooms, decoder: decoder}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers it with the hub. The
// subscription is removed on every disconnect path: explicit close,
// read error, or server drain.
func (h *RoomStreamHandler) Handle(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("chat-room-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	memberID, err := h.decoder.DecodeToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if _, err := h.rooms.GetRoom(ctx, roomID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		MemberID:    memberID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	sub := h.hub.Subscribe(roomID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishStreamEvent(ctx, "ws_connect", roomID, info, "")

	// Keep the connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.Unsubscribe(sub)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			publishStreamEvent(ctx, "ws_disconnect", roomID, info, closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					publishStreamEvent(ctx, "ws_error", roomID, info, closeReason)
				}
				return
			}
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return c.Query("token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func publishStreamEvent(ctx context.Context, event, roomID string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"room_id":     roomID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"member_id": info.MemberID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
