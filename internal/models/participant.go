package models

import "time"

// ChatParticipant links a member to a group room. Read-only in this
// service; membership changes happen upstream.
type ChatParticipant struct {
	ID         string    `db:"id" json:"id"`
	ChatRoomID string    `db:"chat_room_id" json:"roomId"`
	MemberID   string    `db:"member_id" json:"memberId"`
	Role       string    `db:"role" json:"role"`
	JoinedAt   time.Time `db:"joined_at" json:"joinedAt"`
}
