package services_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-room-service/internal/mocks"
	"chat-room-service/internal/models"
	"chat-room-service/internal/repositories"
	"chat-room-service/internal/services"
)

func newService(rooms *mocks.RoomRepositoryMock, messages *mocks.MessageRepositoryMock, participants *mocks.ParticipantRepositoryMock, recent services.RecentRoomsCache) *services.ChatService {
	if rooms == nil {
		rooms = new(mocks.RoomRepositoryMock)
	}
	if messages == nil {
		messages = new(mocks.MessageRepositoryMock)
	}
	if participants == nil {
		participants = new(mocks.ParticipantRepositoryMock)
	}
	return services.NewChatService(rooms, messages, participants, recent)
}

func TestHandleMessageValidation(t *testing.T) {
	svc := newService(nil, nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		roomID   string
		senderID string
		body     string
	}{
		{"missing room", "", "alice", "hi"},
		{"missing sender", "room-1", "", "hi"},
		{"missing body", "room-1", "alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.HandleMessage(ctx, tc.roomID, tc.senderID, "", tc.body)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestHandleMessageUnknownRoom(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	svc := newService(rooms, nil, nil, nil)

	rooms.On("GetRoom", mock.Anything, "ghost").Return(models.ChatRoom{}, repositories.ErrRoomNotFound).Once()

	_, err := svc.HandleMessage(context.Background(), "ghost", "alice", "", "hi")
	require.ErrorIs(t, err, repositories.ErrRoomNotFound)
	rooms.AssertExpectations(t)
}

func TestHandleMessageStoresAndBumpsRecency(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	recent := new(mocks.RecentRoomsCacheMock)
	svc := newService(rooms, messages, nil, recent)

	room := models.ChatRoom{
		ID:           "room-1",
		Type:         models.RoomTypeOneToOne,
		ParticipantA: sql.NullString{String: "alice", Valid: true},
		ParticipantB: sql.NullString{String: "bob", Valid: true},
	}
	rooms.On("GetRoom", mock.Anything, "room-1").Return(room, nil).Once()
	messages.On("Save", mock.Anything, mock.MatchedBy(func(msg models.ChatMessage) bool {
		return msg.ID != "" &&
			msg.ChatRoomID == "room-1" &&
			msg.SenderID == "alice" &&
			msg.Receiver() == "bob" &&
			msg.Message == "hi" &&
			msg.MessageType == models.MessageTypeText &&
			msg.Status == models.MessageStatusSent &&
			!msg.Timestamp.IsZero()
	})).Return(models.ChatMessage{ID: "msg-1", ChatRoomID: "room-1", SenderID: "alice", Message: "hi"}, nil).Once()
	rooms.On("Touch", mock.Anything, "room-1").Return(nil).Once()
	recent.On("Invalidate", mock.Anything, []string{"alice", "bob"}).Once()

	saved, err := svc.HandleMessage(context.Background(), "room-1", "alice", "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", saved.ID)

	rooms.AssertExpectations(t)
	messages.AssertExpectations(t)
	recent.AssertExpectations(t)
}

func TestHandleMessageTouchFailureIsNonFatal(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newService(rooms, messages, nil, nil)

	rooms.On("GetRoom", mock.Anything, "room-1").Return(models.ChatRoom{ID: "room-1"}, nil).Once()
	messages.On("Save", mock.Anything, mock.Anything).Return(models.ChatMessage{ID: "msg-1"}, nil).Once()
	rooms.On("Touch", mock.Anything, "room-1").Return(assert.AnError).Once()

	_, err := svc.HandleMessage(context.Background(), "room-1", "alice", "", "hi")
	require.NoError(t, err)
	rooms.AssertExpectations(t)
}

func TestCreateChatRoomValidation(t *testing.T) {
	svc := newService(nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateChatRoom(ctx, "", models.RoomTypeGroup)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateChatRoom(ctx, "general", "broadcast")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}

func TestEnsureOneToOneRoomReturnsExisting(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	svc := newService(rooms, nil, nil, nil)

	existing := models.ChatRoom{ID: "room-1", Type: models.RoomTypeOneToOne}
	rooms.On("FindOneToOneRoom", mock.Anything, "bob", "alice").Return(existing, nil).Once()

	room, err := svc.EnsureOneToOneRoom(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.ID)
	rooms.AssertNotCalled(t, "CreateOneToOneRoom", mock.Anything, mock.Anything, mock.Anything)
	rooms.AssertExpectations(t)
}

func TestEnsureOneToOneRoomCreatesWhenAbsent(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	svc := newService(rooms, nil, nil, nil)

	created := models.ChatRoom{ID: "room-2", Type: models.RoomTypeOneToOne}
	rooms.On("FindOneToOneRoom", mock.Anything, "alice", "bob").Return(models.ChatRoom{}, repositories.ErrRoomNotFound).Once()
	rooms.On("CreateOneToOneRoom", mock.Anything, "alice", "bob").Return(created, nil).Once()

	room, err := svc.EnsureOneToOneRoom(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "room-2", room.ID)
	rooms.AssertExpectations(t)
}

func TestEnsureOneToOneRoomRejectsSelfChat(t *testing.T) {
	svc := newService(nil, nil, nil, nil)

	_, err := svc.EnsureOneToOneRoom(context.Background(), "alice", "alice")
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "participants", verr.Field)
}

func TestGetRecentChatRoomsCacheHit(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	recent := new(mocks.RecentRoomsCacheMock)
	svc := newService(rooms, nil, nil, recent)

	cached := []models.ChatRoom{{ID: "room-1"}}
	recent.On("Get", mock.Anything, "alice").Return(cached, true).Once()

	got, err := svc.GetRecentChatRooms(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	rooms.AssertNotCalled(t, "FindRecentRooms", mock.Anything, mock.Anything)
	recent.AssertExpectations(t)
}

func TestGetRecentChatRoomsCacheMiss(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	recent := new(mocks.RecentRoomsCacheMock)
	svc := newService(rooms, nil, nil, recent)

	fresh := []models.ChatRoom{{ID: "room-2"}}
	recent.On("Get", mock.Anything, "alice").Return(([]models.ChatRoom)(nil), false).Once()
	rooms.On("FindRecentRooms", mock.Anything, "alice").Return(fresh, nil).Once()
	recent.On("Set", mock.Anything, "alice", fresh).Once()

	got, err := svc.GetRecentChatRooms(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	rooms.AssertExpectations(t)
	recent.AssertExpectations(t)
}

func TestGetRecentChatRoomsWithoutCache(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	svc := newService(rooms, nil, nil, nil)

	rooms.On("FindRecentRooms", mock.Anything, "alice").Return([]models.ChatRoom{{ID: "room-3"}}, nil).Once()

	got, err := svc.GetRecentChatRooms(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	rooms.AssertExpectations(t)
}

func TestUpdateMessageStatusRejectsUnknownStatus(t *testing.T) {
	svc := newService(nil, nil, nil, nil)

	err := svc.UpdateMessageStatus(context.Background(), "room-1", "msg-1", "archived")
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestUpdateMessageStatusDelegates(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newService(nil, messages, nil, nil)

	messages.On("UpdateStatus", mock.Anything, "room-1", "msg-1", models.MessageStatusRead).Return(nil).Once()

	require.NoError(t, svc.UpdateMessageStatus(context.Background(), "room-1", "msg-1", models.MessageStatusRead))
	messages.AssertExpectations(t)
}

func TestUpdateMessageStatusRegressionPropagates(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newService(nil, messages, nil, nil)

	messages.On("UpdateStatus", mock.Anything, "room-1", "msg-1", models.MessageStatusSent).Return(repositories.ErrStatusRegression).Once()

	err := svc.UpdateMessageStatus(context.Background(), "room-1", "msg-1", models.MessageStatusSent)
	require.ErrorIs(t, err, repositories.ErrStatusRegression)
	messages.AssertExpectations(t)
}

func TestDeleteChatRoomInvalidatesRecency(t *testing.T) {
	rooms := new(mocks.RoomRepositoryMock)
	recent := new(mocks.RecentRoomsCacheMock)
	svc := newService(rooms, nil, nil, recent)

	room := models.ChatRoom{
		ID:           "room-1",
		ParticipantA: sql.NullString{String: "alice", Valid: true},
		ParticipantB: sql.NullString{String: "bob", Valid: true},
	}
	rooms.On("GetRoom", mock.Anything, "room-1").Return(room, nil).Once()
	rooms.On("DeleteByID", mock.Anything, "room-1").Return(nil).Once()
	recent.On("Invalidate", mock.Anything, []string{"alice", "bob"}).Once()

	require.NoError(t, svc.DeleteChatRoom(context.Background(), "room-1"))
	rooms.AssertExpectations(t)
	recent.AssertExpectations(t)
}

func TestGetParticipantsByRoomID(t *testing.T) {
	participants := new(mocks.ParticipantRepositoryMock)
	svc := newService(nil, nil, participants, nil)

	participants.On("FindByRoomID", mock.Anything, "room-1").Return([]models.ChatParticipant{{MemberID: "alice"}}, nil).Once()

	got, err := svc.GetParticipantsByRoomID(context.Background(), "room-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].MemberID)
	participants.AssertExpectations(t)
}
