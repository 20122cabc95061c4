package services

import (
	"errors"

	"chat-realtime/internal/models"
)

// Custom errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidToken        = errors.New("invalid token")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrForbidden           = errors.New("not allowed")
	ErrNotParticipant      = errors.New("user is not a participant of the conversation")
	ErrNotGroup            = errors.New("conversation is not a group")
	ErrTooFewParticipants  = errors.New("at least 2 participants required")
	ErrDirectParticipants  = errors.New("a direct conversation needs exactly one other participant")
	ErrAvatarForDirect     = errors.New("cannot set avatar for 1-1 conversation")
	ErrCannotRemoveOwner   = errors.New("cannot remove the group owner")
	ErrAlreadyAdmin        = errors.New("user is already an admin")
	ErrNotAdmin            = errors.New("user is not an admin")
	ErrAlreadyOwner        = errors.New("selected user is already the owner")
	ErrEmptyMessage        = errors.New("message must have content or media")
	ErrMissingRecipient    = errors.New("conversationId or receiverId is required")
	ErrReplyOutsideThread  = errors.New("reply target belongs to another conversation")
	ErrMessageToSelf       = errors.New("cannot start a conversation with yourself")
	ErrUnknownParticipants = errors.New("unknown participant")
	ErrFollowSelf          = errors.New("you cannot follow yourself")
)

// IsNotFound reports whether err means the addressed resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrConversationNotFound) ||
		errors.Is(err, models.ErrMessageNotFound) ||
		errors.Is(err, models.ErrUserNotFound)
}
