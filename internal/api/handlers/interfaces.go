package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"chat-realtime/internal/models"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error)
	SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error)
	GetPublicProfile(ctx context.Context, viewerID, username string) (*models.PublicProfileResponse, error)
	ToggleFollow(ctx context.Context, userID, targetID string) (*models.FollowResponse, error)
	SuggestedUsers(ctx context.Context, userID string) ([]models.UserSummary, error)
}

// GroupSearcher finds the caller's group conversations by name.
type GroupSearcher interface {
	SearchGroups(ctx context.Context, userID, query string) ([]models.GroupSummary, error)
}

type ConversationService interface {
	List(ctx context.Context, userID string) ([]*models.ConversationResponse, error)
	Get(ctx context.Context, userID, id string) (*models.ConversationResponse, error)
	Create(ctx context.Context, creatorID string, req *models.CreateConversationRequest) (*models.ConversationResponse, error)
	Update(ctx context.Context, userID, id, name string, avatar *multipart.FileHeader) (*models.ConversationResponse, error)
	MarkLastSeen(ctx context.Context, userID, id, messageID string) error
	Mute(ctx context.Context, userID, id string, mute bool) error
	Leave(ctx context.Context, userID, id string) (*models.LeaveConversationResponse, error)
	AddParticipants(ctx context.Context, actorID, id string, userIDs []string) (*models.ConversationResponse, error)
	RemoveParticipant(ctx context.Context, actorID, id, userID string) (*models.ConversationResponse, error)
	AssignAdmin(ctx context.Context, actorID, id, userID string) (*models.ConversationResponse, error)
	RemoveAdmin(ctx context.Context, actorID, id, adminID string) (*models.ConversationResponse, error)
	TransferOwnership(ctx context.Context, actorID, id, newOwnerID string) (*models.ConversationResponse, error)
	GroupSearcher
}

type MessageService interface {
	Send(ctx context.Context, senderID string, req *models.SendMessageRequest, files []*multipart.FileHeader) (*models.SendMessageResponse, error)
	List(ctx context.Context, userID, conversationID string) ([]*models.MessageResponse, error)
	MarkSeen(ctx context.Context, userID, conversationID string) (*models.MarkSeenResponse, error)
	DeleteForUser(ctx context.Context, userID, messageID string) error
	DeleteCompletely(ctx context.Context, userID, messageID string) error
}

// TypingRelay forwards typing indicators sent over HTTP to the realtime layer.
type TypingRelay interface {
	StartTyping(ctx context.Context, conversationID string, actor models.UserSummary) error
	StopTyping(ctx context.Context, conversationID string, actor models.UserSummary) error
}

// OnlineRoster lists the users with at least one live connection.
type OnlineRoster interface {
	OnlineUserIDs() []string
}

// SocketServer upgrades an authenticated request into a realtime connection.
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID string)
}
