package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-room-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

const recentRoomLimit = 20

const roomColumns = `id, name, type, status, participant_a, participant_b, pair_key, created_at, updated_at`

// RoomRepository abstracts chat room persistence.
type RoomRepository interface {
	Create(ctx context.Context, name, roomType string) (models.ChatRoom, error)
	GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error)
	DeleteByID(ctx context.Context, roomID string) error
	FindAllByMemberID(ctx context.Context, memberID string) ([]models.ChatRoom, error)
	FindOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error)
	CreateOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error)
	FindRecentRooms(ctx context.Context, memberID string) ([]models.ChatRoom, error)
	Touch(ctx context.Context, roomID string) error
}

// CanonicalPairKey derives the order-independent key for a one-to-one
// room, so {a,b} and {b,a} always map to the same row.
func CanonicalPairKey(a, b string) string {
	lo, hi := orderPair(a, b)
	return lo + ":" + hi
}

func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create stores a new room with status active.
func (r *RoomRepo) Create(ctx context.Context, name, roomType string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`INSERT INTO chat_rooms (id, name, type, status) VALUES ($1, $2, $3, $4)
         RETURNING `+roomColumns,
		uuid.NewString(), name, roomType, models.RoomStatusActive)
	return room, err
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// DeleteByID removes the room record. Messages and participants are left
// to a retention job.
func (r *RoomRepo) DeleteByID(ctx context.Context, roomID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_rooms WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// FindAllByMemberID returns every room the member belongs to: one-to-one
// rooms through the stored participant pair, group rooms through the
// participants relation.
func (r *RoomRepo) FindAllByMemberID(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms
        WHERE (type=$1 AND (participant_a=$2 OR participant_b=$2))
           OR (type=$3 AND id IN (SELECT chat_room_id FROM chat_participants WHERE member_id=$2))
        ORDER BY updated_at DESC`
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms, query, models.RoomTypeOneToOne, memberID, models.RoomTypeGroup)
	return rooms, err
}

// FindOneToOneRoom looks up the active room for the unordered pair {a,b}.
func (r *RoomRepo) FindOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`SELECT `+roomColumns+` FROM chat_rooms
         WHERE type=$1 AND status=$2 AND pair_key=$3`,
		models.RoomTypeOneToOne, models.RoomStatusActive, CanonicalPairKey(a, b))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, ErrRoomNotFound
	}
	return room, err
}

// CreateOneToOneRoom inserts the room for the pair. The partial unique
// index on pair_key makes concurrent creates converge: a losing insert
// falls back to looking up the winner's row.
func (r *RoomRepo) CreateOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	lo, hi := orderPair(a, b)
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room,
		`INSERT INTO chat_rooms (id, name, type, status, participant_a, participant_b, pair_key)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (pair_key) WHERE type = 'one_to_one' AND status = 'active' DO NOTHING
         RETURNING `+roomColumns,
		uuid.NewString(), lo+"_"+hi, models.RoomTypeOneToOne, models.RoomStatusActive, lo, hi, lo+":"+hi)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindOneToOneRoom(ctx, a, b)
	}
	return room, err
}

// FindRecentRooms returns the member's most recently active one-to-one rooms.
func (r *RoomRepo) FindRecentRooms(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM chat_rooms
        WHERE type=$1 AND status=$2 AND (participant_a=$3 OR participant_b=$3)
        ORDER BY updated_at DESC
        LIMIT $4`
	var rooms []models.ChatRoom
	err := r.db.SelectContext(ctx, &rooms, query,
		models.RoomTypeOneToOne, models.RoomStatusActive, memberID, recentRoomLimit)
	return rooms, err
}

// Touch bumps updated_at so recency queries reflect message activity.
func (r *RoomRepo) Touch(ctx context.Context, roomID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_rooms SET updated_at=NOW() WHERE id=$1`, roomID)
	return err
}
