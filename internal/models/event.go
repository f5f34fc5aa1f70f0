package models

import "time"

// RoomEvent is the frame pushed to every live subscriber of a room.
// It is never persisted.
type RoomEvent struct {
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	Message    string `json:"message"`
	ReceiverID string `json:"receiverId,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// NewRoomEvent builds the broadcast frame for a stored message.
func NewRoomEvent(msg ChatMessage) RoomEvent {
	return RoomEvent{
		RoomID:     msg.ChatRoomID,
		SenderID:   msg.SenderID,
		Message:    msg.Message,
		ReceiverID: msg.Receiver(),
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
