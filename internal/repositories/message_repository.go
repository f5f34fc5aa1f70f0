package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-room-service/internal/models"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrStatusRegression = errors.New("message status cannot move backward")
)

const messageColumns = `id, chat_room_id, sender_id, receiver_id, message, message_type, status, timestamp`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Save(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	FindByRoomID(ctx context.Context, roomID string) ([]models.ChatMessage, error)
	DeleteByID(ctx context.Context, messageID string) error
	UpdateStatus(ctx context.Context, roomID, messageID, status string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Save stores a message and returns the persisted row.
func (r *MessageRepo) Save(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	var saved models.ChatMessage
	err := r.db.GetContext(ctx, &saved,
		`INSERT INTO chat_messages (id, chat_room_id, sender_id, receiver_id, message, message_type, status, timestamp)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING `+messageColumns,
		msg.ID, msg.ChatRoomID, msg.SenderID, msg.ReceiverID, msg.Message, msg.MessageType, msg.Status, msg.Timestamp)
	return saved, err
}

// FindByRoomID returns the room's messages in persistence order.
func (r *MessageRepo) FindByRoomID(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM chat_messages WHERE chat_room_id=$1 ORDER BY timestamp ASC`,
		roomID)
	return msgs, err
}

// DeleteByID removes a message.
func (r *MessageRepo) DeleteByID(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// UpdateStatus advances a message's status. The update only matches rows
// whose current status sorts strictly before the requested one, so a
// concurrent later transition can never be overwritten. A same-status
// request is a no-op; a backward request fails with ErrStatusRegression.
func (r *MessageRepo) UpdateStatus(ctx context.Context, roomID, messageID, status string) error {
	rank, ok := models.StatusRank(status)
	if !ok {
		return ErrStatusRegression
	}

	priors := make([]string, 0, rank)
	for _, s := range []string{models.MessageStatusSent, models.MessageStatusDelivered, models.MessageStatusRead} {
		if r, _ := models.StatusRank(s); r < rank {
			priors = append(priors, s)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_messages SET status=$1 WHERE id=$2 AND chat_room_id=$3 AND status = ANY($4)`,
		status, messageID, roomID, pq.Array(priors))
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var current string
	err = r.db.GetContext(ctx, &current,
		`SELECT status FROM chat_messages WHERE id=$1 AND chat_room_id=$2`, messageID, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if current == status {
		return nil
	}
	return ErrStatusRegression
}
