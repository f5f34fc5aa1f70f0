package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-room-service/internal/models"
)

// ParticipantRepository exposes read access to room membership.
type ParticipantRepository interface {
	FindByRoomID(ctx context.Context, roomID string) ([]models.ChatParticipant, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// FindByRoomID returns the room's participants in join order.
func (r *ParticipantRepo) FindByRoomID(ctx context.Context, roomID string) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	err := r.db.SelectContext(ctx, &participants,
		`SELECT id, chat_room_id, member_id, role, joined_at
         FROM chat_participants WHERE chat_room_id=$1 ORDER BY joined_at ASC`,
		roomID)
	return participants, err
}
