package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/models"

	"github.com/gin-gonic/gin"
)

const maxUploadFiles = 10

type MessageHandler struct {
	messages MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages MessageService, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{messages: messages, logger: logger}
}

// RegisterRoutes maps HTTP methods to handler functions
func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Send)
	r.POST("/:conversationId", h.Send)
	r.GET("/:conversationId", h.List)
	r.PUT("/:conversationId/seen", h.MarkSeen)
	r.DELETE("/:messageId", h.DeleteForUser)
	r.DELETE("/completely/:messageId", h.DeleteCompletely)
}

// Send godoc
// @Summary Send a message
// @Description Sends into conversationId (path or body), or to receiverId, opening the 1:1 conversation on first contact. Attachments go in the "files" field.
// @Tags messages
// @Accept json,multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param conversationId path string false "Conversation ID"
// @Param request body models.SendMessageRequest false "Message"
// @Param files formData file false "Attachments"
// @Success 201 {object} models.SendMessageResponse
// @Failure 400 {object} models.ErrorResponse "Empty message or missing recipient"
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Failure 413 {object} models.ErrorResponse "Attachment too large"
// @Router /messages/{conversationId} [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	if id := c.Param("conversationId"); id != "" {
		req.ConversationID = id
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		badRequest(c, err)
		return
	}
	var files []*multipart.FileHeader
	if form != nil {
		files = form.File["files"]
	}
	if len(files) > maxUploadFiles {
		badRequest(c, errors.New("too many attachments"))
		return
	}

	resp, err := h.messages.Send(c.Request.Context(), middleware.GetUserID(c), &req, files)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List messages
// @Description Messages of a conversation in sending order, without those the caller deleted for themselves
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Success 200 {array} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a participant"
// @Router /messages/{conversationId} [get]
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.messages.List(c.Request.Context(), middleware.GetUserID(c), c.Param("conversationId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// MarkSeen godoc
// @Summary Mark messages as seen
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} models.MarkSeenResponse
// @Router /messages/{conversationId}/seen [put]
func (h *MessageHandler) MarkSeen(c *gin.Context) {
	resp, err := h.messages.MarkSeen(c.Request.Context(), middleware.GetUserID(c), c.Param("conversationId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteForUser godoc
// @Summary Delete a message for me
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.StatusResponse
// @Router /messages/{messageId} [delete]
func (h *MessageHandler) DeleteForUser(c *gin.Context) {
	if err := h.messages.DeleteForUser(c.Request.Context(), middleware.GetUserID(c), c.Param("messageId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Message deleted for you"})
}

// DeleteCompletely godoc
// @Summary Delete a message for everyone
// @Description Only the sender may delete a message completely
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageId path string true "Message ID"
// @Success 200 {object} models.StatusResponse
// @Failure 403 {object} models.ErrorResponse "Not the sender"
// @Router /messages/completely/{messageId} [delete]
func (h *MessageHandler) DeleteCompletely(c *gin.Context) {
	if err := h.messages.DeleteCompletely(c.Request.Context(), middleware.GetUserID(c), c.Param("messageId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Message: "Message deleted completely"})
}
