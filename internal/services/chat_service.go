package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"chat-room-service/internal/logging"
	"chat-room-service/internal/models"
	"chat-room-service/internal/repositories"
)

// RecentRoomsCache caches a member's recent room list. Implementations
// must be safe for concurrent use; a nil cache disables caching.
type RecentRoomsCache interface {
	Get(ctx context.Context, memberID string) ([]models.ChatRoom, bool)
	Set(ctx context.Context, memberID string, rooms []models.ChatRoom)
	Invalidate(ctx context.Context, memberIDs ...string)
}

// ChatService is the single authority for state transitions on rooms and
// messages. Every mutation goes through it, never directly through the
// repositories. It performs no broadcasting; the caller pushes to live
// subscribers only after a mutation returns successfully.
type ChatService struct {
	rooms        repositories.RoomRepository
	messages     repositories.MessageRepository
	participants repositories.ParticipantRepository
	recent       RecentRoomsCache
}

// NewChatService builds a ChatService. recent may be nil.
func NewChatService(rooms repositories.RoomRepository, messages repositories.MessageRepository, participants repositories.ParticipantRepository, recent RecentRoomsCache) *ChatService {
	return &ChatService{
		rooms:        rooms,
		messages:     messages,
		participants: participants,
		recent:       recent,
	}
}

// HandleMessage validates, constructs, and stores a new message. The
// returned message is the persisted row, ready for broadcasting.
func (s *ChatService) HandleMessage(ctx context.Context, roomID, senderID, receiverID, body string) (models.ChatMessage, error) {
	if roomID == "" {
		return models.ChatMessage{}, requiredField("roomId")
	}
	if senderID == "" {
		return models.ChatMessage{}, requiredField("senderId")
	}
	if body == "" {
		return models.ChatMessage{}, requiredField("message")
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return models.ChatMessage{}, err
	}

	msg := models.ChatMessage{
		ID:          uuid.NewString(),
		ChatRoomID:  roomID,
		SenderID:    senderID,
		ReceiverID:  nullString(receiverID),
		Message:     body,
		MessageType: models.MessageTypeText,
		Status:      models.MessageStatusSent,
		Timestamp:   time.Now().UTC(),
	}

	saved, err := s.messages.Save(ctx, msg)
	if err != nil {
		return models.ChatMessage{}, err
	}

	if err := s.rooms.Touch(ctx, roomID); err != nil {
		logging.L().Warn().Err(err).Str("room_id", roomID).Msg("failed to bump room activity")
	}
	s.invalidateRecency(ctx, room)

	logging.L().Info().
		Str("room_id", roomID).
		Str("sender_id", senderID).
		Str("message_id", saved.ID).
		Msg("message stored")
	return saved, nil
}

// CreateChatRoom creates a room with status active. Group room names are
// not unique.
func (s *ChatService) CreateChatRoom(ctx context.Context, name, roomType string) (models.ChatRoom, error) {
	if name == "" {
		return models.ChatRoom{}, requiredField("name")
	}
	if !models.ValidRoomType(roomType) {
		return models.ChatRoom{}, &ValidationError{Field: "type", Reason: "must be one_to_one or group"}
	}
	return s.rooms.Create(ctx, name, roomType)
}

// DeleteChatRoom removes the room record only; message and participant
// cleanup belongs to a retention job.
func (s *ChatService) DeleteChatRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return requiredField("roomId")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.rooms.DeleteByID(ctx, roomID); err != nil {
		return err
	}
	s.invalidateRecency(ctx, room)
	return nil
}

// GetAllChatRooms lists every room the member belongs to.
func (s *ChatService) GetAllChatRooms(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	if memberID == "" {
		return nil, requiredField("memberId")
	}
	return s.rooms.FindAllByMemberID(ctx, memberID)
}

// GetRecentChatRooms lists the member's most recently active rooms,
// served through the cache when one is configured.
func (s *ChatService) GetRecentChatRooms(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	if memberID == "" {
		return nil, requiredField("memberId")
	}
	if s.recent != nil {
		if rooms, ok := s.recent.Get(ctx, memberID); ok {
			return rooms, nil
		}
	}
	rooms, err := s.rooms.FindRecentRooms(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if s.recent != nil {
		s.recent.Set(ctx, memberID, rooms)
	}
	return rooms, nil
}

// GetOneToOneRoom resolves the active room for the unordered pair {a,b}.
func (s *ChatService) GetOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	if a == "" {
		return models.ChatRoom{}, requiredField("participantA")
	}
	if b == "" {
		return models.ChatRoom{}, requiredField("participantB")
	}
	if a == b {
		return models.ChatRoom{}, &ValidationError{Field: "participants", Reason: "cannot chat with yourself"}
	}
	return s.rooms.FindOneToOneRoom(ctx, a, b)
}

// CreateOneToOneRoom creates the room for the pair. Duplicate concurrent
// creates converge on one row through the storage-level pair key.
func (s *ChatService) CreateOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	if a == "" {
		return models.ChatRoom{}, requiredField("participantA")
	}
	if b == "" {
		return models.ChatRoom{}, requiredField("participantB")
	}
	if a == b {
		return models.ChatRoom{}, &ValidationError{Field: "participants", Reason: "cannot chat with yourself"}
	}
	room, err := s.rooms.CreateOneToOneRoom(ctx, a, b)
	if err != nil {
		return models.ChatRoom{}, err
	}
	s.invalidateRecency(ctx, room)
	return room, nil
}

// EnsureOneToOneRoom looks the room up and creates it when absent.
func (s *ChatService) EnsureOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	room, err := s.GetOneToOneRoom(ctx, a, b)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repositories.ErrRoomNotFound) {
		return models.ChatRoom{}, err
	}
	return s.CreateOneToOneRoom(ctx, a, b)
}

// GetMessagesByRoomID returns the room's messages in persistence order.
func (s *ChatService) GetMessagesByRoomID(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	if roomID == "" {
		return nil, requiredField("roomId")
	}
	return s.messages.FindByRoomID(ctx, roomID)
}

// DeleteMessageByID removes a single message.
func (s *ChatService) DeleteMessageByID(ctx context.Context, messageID string) error {
	if messageID == "" {
		return requiredField("messageId")
	}
	return s.messages.DeleteByID(ctx, messageID)
}

// GetParticipantsByRoomID returns the room's participants.
func (s *ChatService) GetParticipantsByRoomID(ctx context.Context, roomID string) ([]models.ChatParticipant, error) {
	if roomID == "" {
		return nil, requiredField("roomId")
	}
	return s.participants.FindByRoomID(ctx, roomID)
}

// UpdateMessageStatus advances a message's status. Backward transitions
// are rejected; repeating the current status is a no-op.
func (s *ChatService) UpdateMessageStatus(ctx context.Context, roomID, messageID, status string) error {
	if roomID == "" {
		return requiredField("roomId")
	}
	if messageID == "" {
		return requiredField("messageId")
	}
	if _, ok := models.StatusRank(status); !ok {
		return &ValidationError{Field: "status", Reason: "must be sent, delivered, or read"}
	}
	return s.messages.UpdateStatus(ctx, roomID, messageID, status)
}

func (s *ChatService) invalidateRecency(ctx context.Context, room models.ChatRoom) {
	if s.recent == nil {
		return
	}
	members := make([]string, 0, 2)
	if room.ParticipantA.Valid {
		members = append(members, room.ParticipantA.String)
	}
	if room.ParticipantB.Valid {
		members = append(members, room.ParticipantB.String)
	}
	if len(members) > 0 {
		s.recent.Invalidate(ctx, members...)
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
