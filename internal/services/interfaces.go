package services

import (
	"context"
	"mime/multipart"

	"chat-realtime/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SearchUsersByUsername(ctx context.Context, query string, limit int) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	CountFollows(ctx context.Context, userID uint) (followers, following int64, err error)
	SuggestUsers(ctx context.Context, userID uint, limit int) ([]models.User, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*models.Conversation, error)
	SearchGroups(ctx context.Context, userID, query string, limit int) ([]models.Conversation, error)
	Save(ctx context.Context, conv *models.Conversation) error
	Delete(ctx context.Context, id string) error
	SetLastSeen(ctx context.Context, conversationID, userID string, messageID primitive.ObjectID) error
	SetMuted(ctx context.Context, conversationID, userID string, muted bool) error
	SetLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID) error
	AddParticipants(ctx context.Context, conversationID string, userIDs []string) (*models.Conversation, error)
	RemoveParticipant(ctx context.Context, conversationID, userID string) (*models.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error)
	ListByConversation(ctx context.Context, conversationID primitive.ObjectID, viewerID string) ([]models.Message, error)
	CountUnread(ctx context.Context, conversationID primitive.ObjectID, userID string) (int64, error)
	MarkSeen(ctx context.Context, conversationID primitive.ObjectID, userID string) (int64, error)
	DeleteForUser(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
	DeleteByConversation(ctx context.Context, conversationID primitive.ObjectID) error
}

// UserDirectory resolves user ids to their public summaries.
type UserDirectory interface {
	Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error)
}

// MediaUploader stores an uploaded file under folder.
type MediaUploader interface {
	Upload(ctx context.Context, folder string, file *multipart.FileHeader) (*models.Media, error)
}

// Notifier delivers conversation changes to connected users.
type Notifier interface {
	ConversationCreated(ctx context.Context, conv *models.ConversationResponse, creatorID string)
	MessageSent(ctx context.Context, msg *models.MessageResponse, created *models.ConversationResponse)
	ParticipantsAdded(ctx context.Context, conv *models.ConversationResponse, addedUserIDs []string)
	ParticipantRemoved(ctx context.Context, conv *models.ConversationResponse, userID string)
	AdminPromoted(ctx context.Context, conv *models.ConversationResponse, userID string)
	AdminDemoted(ctx context.Context, conv *models.ConversationResponse, userID string)
	OwnershipTransferred(ctx context.Context, conv *models.ConversationResponse, newOwnerID string)
	MessagesSeen(ctx context.Context, conversationID string, user models.UserSummary)
}
