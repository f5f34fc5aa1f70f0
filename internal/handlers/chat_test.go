package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-room-service/internal/broadcast"
	"chat-room-service/internal/clients"
	"chat-room-service/internal/middleware"
	"chat-room-service/internal/mocks"
	"chat-room-service/internal/models"
	"chat-room-service/internal/repositories"
	"chat-room-service/internal/services"
)

type recordingBroadcaster struct {
	roomIDs  []string
	payloads [][]byte
}

func (b *recordingBroadcaster) Broadcast(roomID string, payload []byte) {
	b.roomIDs = append(b.roomIDs, roomID)
	b.payloads = append(b.payloads, payload)
}

type handlerDeps struct {
	rooms        *mocks.RoomRepositoryMock
	messages     *mocks.MessageRepositoryMock
	participants *mocks.ParticipantRepositoryMock
	members      *mocks.MemberLookupMock
	broadcaster  *recordingBroadcaster
}

func setupChatRouter() (*gin.Engine, *handlerDeps) {
	gin.SetMode(gin.TestMode)

	deps := &handlerDeps{
		rooms:        new(mocks.RoomRepositoryMock),
		messages:     new(mocks.MessageRepositoryMock),
		participants: new(mocks.ParticipantRepositoryMock),
		members:      new(mocks.MemberLookupMock),
		broadcaster:  &recordingBroadcaster{},
	}
	svc := services.NewChatService(deps.rooms, deps.messages, deps.participants, nil)
	coordinator := broadcast.NewCoordinator(deps.broadcaster)
	handler := NewChatHandler(svc, coordinator, deps.members)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.MemberIDContextKey, "alice")
		c.Next()
	})
	r.GET("/members/me", handler.GetMe)
	r.GET("/chats/rooms", handler.ListRooms)
	r.POST("/chats/rooms", handler.CreateRoom)
	r.GET("/chats/rooms/recent", handler.RecentRooms)
	r.POST("/chats/rooms/one-to-one", handler.EnsureOneToOneRoom)
	r.DELETE("/chats/rooms/:room_id", handler.DeleteRoom)
	r.GET("/chats/rooms/:room_id/messages", handler.GetRoomMessages)
	r.POST("/chats/rooms/:room_id/messages", handler.SendMessage)
	r.DELETE("/chats/rooms/:room_id/messages/:message_id", handler.DeleteMessage)
	r.PATCH("/chats/rooms/:room_id/messages/:message_id/status", handler.UpdateMessageStatus)
	r.GET("/chats/rooms/:room_id/participants", handler.GetParticipants)
	return r, deps
}

func TestSendMessageSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("GetRoom", mock.Anything, "room-1").Return(models.ChatRoom{ID: "room-1"}, nil).Once()
	deps.messages.On("Save", mock.Anything, mock.Anything).Return(models.ChatMessage{ID: "msg-1", ChatRoomID: "room-1", SenderID: "alice", Message: "hi"}, nil).Once()
	deps.rooms.On("Touch", mock.Anything, "room-1").Return(nil).Once()

	body := bytes.NewBufferString(`{"message":"hi","senderId":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/chats/rooms/room-1/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.ChatMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "msg-1", resp.ID)

	// The live push happens after the store and targets the room.
	require.Len(t, deps.broadcaster.roomIDs, 1)
	assert.Equal(t, "room-1", deps.broadcaster.roomIDs[0])

	deps.rooms.AssertExpectations(t)
	deps.messages.AssertExpectations(t)
}

func TestSendMessageInvalidBody(t *testing.T) {
	router, deps := setupChatRouter()

	req := httptest.NewRequest(http.MethodPost, "/chats/rooms/room-1/messages", bytes.NewBufferString(`{"senderId":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, deps.broadcaster.roomIDs)
}

func TestSendMessageUnknownRoom(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("GetRoom", mock.Anything, "ghost").Return(models.ChatRoom{}, repositories.ErrRoomNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/rooms/ghost/messages", bytes.NewBufferString(`{"message":"hi","senderId":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, deps.broadcaster.roomIDs)
	deps.rooms.AssertExpectations(t)
}

func TestCreateRoomSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("Create", mock.Anything, "general", models.RoomTypeGroup).Return(models.ChatRoom{ID: "room-1", Name: "general", Type: models.RoomTypeGroup}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/rooms", bytes.NewBufferString(`{"name":"general","type":"group"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	deps.rooms.AssertExpectations(t)
}

func TestCreateRoomInvalidType(t *testing.T) {
	router, _ := setupChatRouter()

	req := httptest.NewRequest(http.MethodPost, "/chats/rooms", bytes.NewBufferString(`{"name":"general","type":"broadcast"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnsureOneToOneRoomSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("FindOneToOneRoom", mock.Anything, "alice", "bob").Return(models.ChatRoom{ID: "room-1", Type: models.RoomTypeOneToOne}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/rooms/one-to-one", bytes.NewBufferString(`{"participantA":"alice","participantB":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatRoom
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "room-1", resp.ID)
	deps.rooms.AssertExpectations(t)
}

func TestListRoomsSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("FindAllByMemberID", mock.Anything, "alice").Return([]models.ChatRoom{{ID: "room-1"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]models.ChatRoom
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["rooms"], 1)
	deps.rooms.AssertExpectations(t)
}

func TestRecentRoomsSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("FindRecentRooms", mock.Anything, "alice").Return([]models.ChatRoom{{ID: "room-2"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/rooms/recent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	deps.rooms.AssertExpectations(t)
}

func TestDeleteRoomSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.rooms.On("GetRoom", mock.Anything, "room-1").Return(models.ChatRoom{ID: "room-1"}, nil).Once()
	deps.rooms.On("DeleteByID", mock.Anything, "room-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chats/rooms/room-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	deps.rooms.AssertExpectations(t)
}

func TestGetRoomMessagesSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.messages.On("FindByRoomID", mock.Anything, "room-1").Return([]models.ChatMessage{{ID: "msg-1"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/rooms/room-1/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	deps.messages.AssertExpectations(t)
}

func TestUpdateMessageStatusSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.messages.On("UpdateStatus", mock.Anything, "room-1", "msg-1", models.MessageStatusDelivered).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/chats/rooms/room-1/messages/msg-1/status", bytes.NewBufferString(`{"status":"delivered"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	deps.messages.AssertExpectations(t)
}

func TestUpdateMessageStatusRegression(t *testing.T) {
	router, deps := setupChatRouter()

	deps.messages.On("UpdateStatus", mock.Anything, "room-1", "msg-1", models.MessageStatusSent).Return(repositories.ErrStatusRegression).Once()

	req := httptest.NewRequest(http.MethodPatch, "/chats/rooms/room-1/messages/msg-1/status", bytes.NewBufferString(`{"status":"sent"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	deps.messages.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.messages.On("DeleteByID", mock.Anything, "msg-1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chats/rooms/room-1/messages/msg-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	deps.messages.AssertExpectations(t)
}

func TestGetParticipantsSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.participants.On("FindByRoomID", mock.Anything, "room-1").Return([]models.ChatParticipant{{MemberID: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/rooms/room-1/participants", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	deps.participants.AssertExpectations(t)
}

func TestGetMeSuccess(t *testing.T) {
	router, deps := setupChatRouter()

	deps.members.On("GetMemberByID", mock.Anything, "alice").Return(clients.MemberInfo{ID: 1, Nickname: "Alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/members/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	deps.members.AssertExpectations(t)
}

func TestGetMeNotFound(t *testing.T) {
	router, deps := setupChatRouter()

	deps.members.On("GetMemberByID", mock.Anything, "alice").Return(clients.MemberInfo{}, clients.ErrMemberNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/members/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	deps.members.AssertExpectations(t)
}
