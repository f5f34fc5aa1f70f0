package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"chat-room-service/internal/logging"
	"chat-room-service/internal/observability"
)

// Conn is the write side of a live stream connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Subscription is one live connection registered against one room. It is
// owned by the Hub; holders only pass it back to Unsubscribe.
type Subscription struct {
	roomID string
	conn   Conn
	info   ConnInfo
}

// RoomID returns the room this subscription belongs to.
func (s *Subscription) RoomID() string { return s.roomID }

// Info returns the connection metadata captured at subscribe time.
func (s *Subscription) Info() ConnInfo { return s.info }

type roomSet struct {
	// Serializes this room's broadcasts so delivery order matches
	// persistence order. Broadcasts to different rooms do not contend.
	broadcastMu sync.Mutex
	subs        map[*Subscription]struct{}
}

// Hub is the process-local directory of live room stream connections.
// Construct one per process and Drain it on shutdown.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomSet
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*roomSet)}
}

// Subscribe registers a connection under the room and returns the handle
// used for later removal. It never fails.
func (h *Hub) Subscribe(roomID string, conn Conn, info ConnInfo) *Subscription {
	sub := &Subscription{roomID: roomID, conn: conn, info: info}

	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.rooms[roomID]
	if !ok {
		rs = &roomSet{subs: make(map[*Subscription]struct{})}
		h.rooms[roomID] = rs
	}
	rs.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the connection from its room's set. Idempotent:
// removing an already-removed handle is a no-op. The empty per-room
// entry is dropped so the map does not grow without bound.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.rooms[sub.roomID]
	if !ok {
		return
	}
	if _, ok := rs.subs[sub]; !ok {
		return
	}
	delete(rs.subs, sub)
	if len(rs.subs) == 0 {
		delete(h.rooms, sub.roomID)
	}
}

// Broadcast delivers payload to every connection currently registered for
// the room. Each delivery is isolated: a failed write closes and removes
// that connection without affecting the others or the caller. A room with
// zero subscribers is a no-op.
func (h *Hub) Broadcast(roomID string, payload []byte) {
	h.mu.RLock()
	rs := h.rooms[roomID]
	h.mu.RUnlock()
	if rs == nil {
		return
	}

	rs.broadcastMu.Lock()
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(rs.subs))
	for sub := range rs.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	var failed []*Subscription
	for _, sub := range subs {
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logging.L().Warn().Err(err).
				Str("room_id", roomID).
				Str("conn_id", sub.info.ConnID).
				Msg("stream write failed, dropping subscriber")
			_ = sub.conn.Close()
			failed = append(failed, sub)
			continue
		}
		delivered++
	}
	rs.broadcastMu.Unlock()

	for _, sub := range failed {
		h.Unsubscribe(sub)
		observability.IncBroadcastDropped()
		observability.IncWSEvent("ws_error")
	}
	if delivered > 0 {
		observability.AddBroadcastDelivered(delivered)
	}
}

// SubscriberCount reports the number of live connections for a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rs, ok := h.rooms[roomID]
	if !ok {
		return 0
	}
	return len(rs.subs)
}

// Drain closes and removes every subscription. Called on shutdown so no
// write can race a closing listener.
func (h *Hub) Drain() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, rs := range h.rooms {
		for sub := range rs.subs {
			_ = sub.conn.Close()
		}
		delete(h.rooms, roomID)
	}
}
