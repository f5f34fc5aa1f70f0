package models

import (
	"database/sql"
	"time"
)

// Message types.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
)

// Message statuses, ordered. A message only ever moves forward through
// sent -> delivered -> read.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

var statusRank = map[string]int{
	MessageStatusSent:      0,
	MessageStatusDelivered: 1,
	MessageStatusRead:      2,
}

// StatusRank returns the position of a message status in the forward
// order, and whether the status is known at all.
func StatusRank(status string) (int, bool) {
	rank, ok := statusRank[status]
	return rank, ok
}

// ChatMessage represents a single message in a room. The body never
// changes after creation; only the status advances.
type ChatMessage struct {
	ID          string         `db:"id" json:"id"`
	ChatRoomID  string         `db:"chat_room_id" json:"roomId"`
	SenderID    string         `db:"sender_id" json:"senderId"`
	ReceiverID  sql.NullString `db:"receiver_id" json:"-"`
	Message     string         `db:"message" json:"message"`
	MessageType string         `db:"message_type" json:"messageType"`
	Status      string         `db:"status" json:"status"`
	Timestamp   time.Time      `db:"timestamp" json:"timestamp"`
}

// Receiver returns the optional receiver id, empty when unset.
func (m ChatMessage) Receiver() string {
	if m.ReceiverID.Valid {
		return m.ReceiverID.String
	}
	return ""
}
