package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-room-service/internal/broadcast"
	"chat-room-service/internal/clients"
	"chat-room-service/internal/middleware"
	"chat-room-service/internal/repositories"
	"chat-room-service/internal/services"
)

// ChatHandler exposes the chat room REST endpoints.
type ChatHandler struct {
	chat        *services.ChatService
	coordinator *broadcast.Coordinator
	members     clients.MemberLookup
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chat *services.ChatService, coordinator *broadcast.Coordinator, members clients.MemberLookup) *ChatHandler {
	return &ChatHandler{chat: chat, coordinator: coordinator, members: members}
}

// Health reports process liveness.
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// GetMe returns the authenticated member's profile.
func (h *ChatHandler) GetMe(c *gin.Context) {
	memberID := c.GetString(middleware.MemberIDContextKey)
	member, err := h.members.GetMemberByID(c.Request.Context(), memberID)
	if err != nil {
		if errors.Is(err, clients.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load member info"})
		return
	}
	c.JSON(http.StatusOK, member)
}

// SendMessage stores a message and pushes it to the room's live
// subscribers. The push happens only after the store succeeds.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	roomID := c.Param("room_id")

	var req struct {
		Message    string `json:"message" binding:"required"`
		SenderID   string `json:"senderId" binding:"required"`
		ReceiverID string `json:"receiverId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.HandleMessage(c.Request.Context(), roomID, req.SenderID, req.ReceiverID, req.Message)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to send message"})
		return
	}

	h.coordinator.MessageStored(c.Request.Context(), msg)
	c.JSON(http.StatusCreated, msg)
}

// GetRoomMessages returns a room's message history.
func (h *ChatHandler) GetRoomMessages(c *gin.Context) {
	msgs, err := h.chat.GetMessagesByRoomID(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateRoom creates a chat room.
func (h *ChatHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.chat.CreateChatRoom(c.Request.Context(), req.Name, req.Type)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

// DeleteRoom removes a room.
func (h *ChatHandler) DeleteRoom(c *gin.Context) {
	if err := h.chat.DeleteChatRoom(c.Request.Context(), c.Param("room_id")); err != nil {
		c.JSON(statusForError(err), gin.H{"error": "could not delete room"})
		return
	}
	c.Status(http.StatusNoContent)
}

// EnsureOneToOneRoom returns the one-to-one room for a participant pair,
// creating it when absent. Both orderings of the pair resolve to the
// same room.
func (h *ChatHandler) EnsureOneToOneRoom(c *gin.Context) {
	var req struct {
		ParticipantA string `json:"participantA" binding:"required"`
		ParticipantB string `json:"participantB" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.chat.EnsureOneToOneRoom(c.Request.Context(), req.ParticipantA, req.ParticipantB)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to ensure one-to-one room"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms returns every room the authenticated member belongs to.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	memberID := c.GetString(middleware.MemberIDContextKey)
	rooms, err := h.chat.GetAllChatRooms(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to load rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// RecentRooms returns the authenticated member's recently active rooms.
func (h *ChatHandler) RecentRooms(c *gin.Context) {
	memberID := c.GetString(middleware.MemberIDContextKey)
	rooms, err := h.chat.GetRecentChatRooms(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to load recent rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// UpdateMessageStatus advances a message's status. Backward transitions
// are rejected with a conflict.
func (h *ChatHandler) UpdateMessageStatus(c *gin.Context) {
	roomID := c.Param("room_id")
	messageID := c.Param("message_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chat.UpdateMessageStatus(c.Request.Context(), roomID, messageID, req.Status); err != nil {
		c.JSON(statusForError(err), gin.H{"error": "could not update message status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": messageID, "status": req.Status})
}

// DeleteMessage removes a single message.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	if err := h.chat.DeleteMessageByID(c.Request.Context(), c.Param("message_id")); err != nil {
		c.JSON(statusForError(err), gin.H{"error": "could not delete message"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetParticipants returns a room's participants.
func (h *ChatHandler) GetParticipants(c *gin.Context) {
	participants, err := h.chat.GetParticipantsByRoomID(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": "failed to load participants"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func statusForError(err error) int {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrRoomNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrStatusRegression):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
