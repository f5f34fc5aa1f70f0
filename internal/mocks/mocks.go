package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-room-service/internal/auth"
	"chat-room-service/internal/clients"
	"chat-room-service/internal/models"
	"chat-room-service/internal/repositories"
	"chat-room-service/internal/services"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) Create(ctx context.Context, name, roomType string) (models.ChatRoom, error) {
	args := m.Called(ctx, name, roomType)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) DeleteByID(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepositoryMock) FindAllByMemberID(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	args := m.Called(ctx, memberID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) FindOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	args := m.Called(ctx, a, b)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) CreateOneToOneRoom(ctx context.Context, a, b string) (models.ChatRoom, error) {
	args := m.Called(ctx, a, b)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) FindRecentRooms(ctx context.Context, memberID string) ([]models.ChatRoom, error) {
	args := m.Called(ctx, memberID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) Touch(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Save(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	var saved models.ChatMessage
	if val := args.Get(0); val != nil {
		saved = val.(models.ChatMessage)
	}
	return saved, args.Error(1)
}

func (m *MessageRepositoryMock) FindByRoomID(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteByID(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) UpdateStatus(ctx context.Context, roomID, messageID, status string) error {
	args := m.Called(ctx, roomID, messageID, status)
	return args.Error(0)
}

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) FindByRoomID(ctx context.Context, roomID string) ([]models.ChatParticipant, error) {
	args := m.Called(ctx, roomID)
	var participants []models.ChatParticipant
	if val := args.Get(0); val != nil {
		participants = val.([]models.ChatParticipant)
	}
	return participants, args.Error(1)
}

type TokenDecoderMock struct {
	mock.Mock
}

func (m *TokenDecoderMock) DecodeToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type MemberLookupMock struct {
	mock.Mock
}

func (m *MemberLookupMock) GetMemberByID(ctx context.Context, memberID string) (clients.MemberInfo, error) {
	args := m.Called(ctx, memberID)
	var member clients.MemberInfo
	if val := args.Get(0); val != nil {
		member = val.(clients.MemberInfo)
	}
	return member, args.Error(1)
}

type RecentRoomsCacheMock struct {
	mock.Mock
}

func (m *RecentRoomsCacheMock) Get(ctx context.Context, memberID string) ([]models.ChatRoom, bool) {
	args := m.Called(ctx, memberID)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Bool(1)
}

func (m *RecentRoomsCacheMock) Set(ctx context.Context, memberID string, rooms []models.ChatRoom) {
	m.Called(ctx, memberID, rooms)
}

func (m *RecentRoomsCacheMock) Invalidate(ctx context.Context, memberIDs ...string) {
	m.Called(ctx, memberIDs)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ auth.TokenDecoder = (*TokenDecoderMock)(nil)
var _ clients.MemberLookup = (*MemberLookupMock)(nil)
var _ services.RecentRoomsCache = (*RecentRoomsCacheMock)(nil)
