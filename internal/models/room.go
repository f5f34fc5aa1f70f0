package models

import (
	"database/sql"
	"time"
)

// Room types.
const (
	RoomTypeOneToOne = "one_to_one"
	RoomTypeGroup    = "group"
)

// Room statuses.
const (
	RoomStatusActive   = "active"
	RoomStatusInactive = "inactive"
)

// ChatRoom represents a conversation scope, either a fixed two-party
// channel or a multi-party group.
type ChatRoom struct {
	ID           string         `db:"id" json:"roomId"`
	Name         string         `db:"name" json:"name"`
	Type         string         `db:"type" json:"type"`
	Status       string         `db:"status" json:"status"`
	ParticipantA sql.NullString `db:"participant_a" json:"-"`
	ParticipantB sql.NullString `db:"participant_b" json:"-"`
	PairKey      sql.NullString `db:"pair_key" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// ValidRoomType reports whether t is a known room type.
func ValidRoomType(t string) bool {
	return t == RoomTypeOneToOne || t == RoomTypeGroup
}
