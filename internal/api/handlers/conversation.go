package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/models"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	conversations ConversationService
	typing        TypingRelay
	logger        *slog.Logger
}

func NewConversationHandler(conversations ConversationService, typing TypingRelay, logger *slog.Logger) *ConversationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationHandler{conversations: conversations, typing: typing, logger: logger}
}

// RegisterRoutes maps HTTP methods to handler functions
func (h *ConversationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.PATCH("/:id/add-admin/:userId", h.AssignAdmin)
	r.PATCH("/:id/remove-admin/:adminId", h.RemoveAdmin)
	r.PUT("/:id/last-seen", h.MarkLastSeen)
	r.PUT("/:id/typing", h.Typing)
	r.PUT("/:id/mute", h.Mute)
	r.PUT("/:id/participants", h.AddParticipants)
	r.PUT("/:id/leave", h.Leave)
	r.PUT("/:id/transfer-ownership", h.TransferOwnership)
	r.DELETE("/:id/participants/:userId", h.RemoveParticipant)
}

// List godoc
// @Summary List conversations
// @Description Conversations of the current user, most recently active first, with unread counts
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ConversationResponse
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.conversations.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// Get godoc
// @Summary Get a conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 404 {object} models.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.conversations.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Create godoc
// @Summary Create a conversation
// @Description Groups need at least two other participants. A direct conversation that already exists is returned as is.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateConversationRequest true "Conversation data"
// @Success 201 {object} models.ConversationResponse
// @Failure 400 {object} models.ErrorResponse "Bad request - invalid input data"
// @Router /conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// Update godoc
// @Summary Update a conversation
// @Description Rename a conversation or replace a group's avatar
// @Tags conversations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param name formData string false "New name"
// @Param avatar formData file false "Group avatar"
// @Success 200 {object} models.ConversationResponse
// @Failure 400 {object} models.ErrorResponse "Avatar on a direct conversation"
// @Router /conversations/{id} [patch]
func (h *ConversationHandler) Update(c *gin.Context) {
	var req models.UpdateConversationRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	avatar, err := c.FormFile("avatar")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		badRequest(c, err)
		return
	}

	conv, err := h.conversations.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Name, avatar)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// MarkLastSeen godoc
// @Summary Mark last seen message
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.MarkLastSeenRequest true "Last seen message"
// @Success 200 {object} models.StatusResponse
// @Router /conversations/{id}/last-seen [put]
func (h *ConversationHandler) MarkLastSeen(c *gin.Context) {
	var req models.MarkLastSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.conversations.MarkLastSeen(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.MessageID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Last seen message updated"})
}

// Typing godoc
// @Summary Toggle typing status
// @Description Relays typing or stopTyping to the other participants, for clients without a socket
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.TypingStatusRequest true "Typing state"
// @Success 200 {object} models.StatusResponse
// @Router /conversations/{id}/typing [put]
func (h *ConversationHandler) Typing(c *gin.Context) {
	var req models.TypingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor := models.UserSummary{
		ID:       middleware.GetUserID(c),
		Username: c.GetString(middleware.ContextUsername),
	}
	relay := h.typing.StopTyping
	if *req.IsTyping {
		relay = h.typing.StartTyping
	}
	if err := relay(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Typing status relayed"})
}

// Mute godoc
// @Summary Mute or unmute a conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.MuteConversationRequest true "Mute flag"
// @Success 200 {object} models.StatusResponse
// @Router /conversations/{id}/mute [put]
func (h *ConversationHandler) Mute(c *gin.Context) {
	var req models.MuteConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.conversations.Mute(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), *req.Mute); err != nil {
		respondError(c, h.logger, err)
		return
	}

	msg := "Conversation unmuted"
	if *req.Mute {
		msg = "Conversation muted"
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: msg})
}

// AddParticipants godoc
// @Summary Add participants to a group
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.AddParticipantsRequest true "Users to add"
// @Success 200 {object} models.ConversationResponse
// @Failure 400 {object} models.ErrorResponse "Not a group"
// @Router /conversations/{id}/participants [put]
func (h *ConversationHandler) AddParticipants(c *gin.Context) {
	var req models.AddParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conv, err := h.conversations.AddParticipants(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.NewUserIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// RemoveParticipant godoc
// @Summary Remove a participant
// @Description Owner or admin only. The owner cannot be removed.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param userId path string true "User to remove"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} models.ErrorResponse "Not allowed"
// @Router /conversations/{id}/participants/{userId} [delete]
func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	conv, err := h.conversations.RemoveParticipant(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Leave godoc
// @Summary Leave a conversation
// @Description The conversation is deleted when its last participant leaves
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} models.LeaveConversationResponse
// @Router /conversations/{id}/leave [put]
func (h *ConversationHandler) Leave(c *gin.Context) {
	resp, err := h.conversations.Leave(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AssignAdmin godoc
// @Summary Promote a participant to admin
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param userId path string true "User to promote"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} models.ErrorResponse "Owner only"
// @Router /conversations/{id}/add-admin/{userId} [patch]
func (h *ConversationHandler) AssignAdmin(c *gin.Context) {
	conv, err := h.conversations.AssignAdmin(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// RemoveAdmin godoc
// @Summary Demote an admin
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param adminId path string true "Admin to demote"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} models.ErrorResponse "Owner only"
// @Router /conversations/{id}/remove-admin/{adminId} [patch]
func (h *ConversationHandler) RemoveAdmin(c *gin.Context) {
	conv, err := h.conversations.RemoveAdmin(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("adminId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// TransferOwnership godoc
// @Summary Transfer group ownership
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param request body models.TransferOwnershipRequest true "New owner"
// @Success 200 {object} models.ConversationResponse
// @Failure 403 {object} models.ErrorResponse "Owner only"
// @Router /conversations/{id}/transfer-ownership [put]
func (h *ConversationHandler) TransferOwnership(c *gin.Context) {
	var req models.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conv, err := h.conversations.TransferOwnership(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.NewOwnerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
