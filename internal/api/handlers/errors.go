package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-realtime/internal/models"
	"chat-realtime/internal/services"
	"chat-realtime/internal/storage"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrCannotRemoveOwner):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrEmailAlreadyExists),
		errors.Is(err, models.ErrUsernameAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotGroup),
		errors.Is(err, services.ErrTooFewParticipants),
		errors.Is(err, services.ErrDirectParticipants),
		errors.Is(err, services.ErrAvatarForDirect),
		errors.Is(err, services.ErrAlreadyAdmin),
		errors.Is(err, services.ErrNotAdmin),
		errors.Is(err, services.ErrAlreadyOwner),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMissingRecipient),
		errors.Is(err, services.ErrReplyOutsideThread),
		errors.Is(err, services.ErrMessageToSelf),
		errors.Is(err, services.ErrUnknownParticipants),
		errors.Is(err, services.ErrFollowSelf),
		errors.Is(err, storage.ErrEmptyFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err as an ErrorResponse. Internal failures are logged
// and their details withheld from the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := models.ErrorResponse{
		Code:    status,
		Message: http.StatusText(status),
		Details: err.Error(),
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		resp.Details = "An unexpected error occurred."
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "Invalid input data",
		Details: err.Error(),
	})
}
