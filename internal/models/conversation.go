package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// enum
type CallStatus string

const (
	CallStatusNone  CallStatus = "none"
	CallStatusVideo CallStatus = "video"
	CallStatusAudio CallStatus = "audio"
	CallStatusEnded CallStatus = "ended"
)

/** --------------------ENTITIES-------------------- */
// Participant is one member entry of a conversation. User ids are the
// decimal form of the Postgres user primary key.
type Participant struct {
	UserID          string              `bson:"user" json:"user"`
	IsMuted         bool                `bson:"isMuted" json:"isMuted"`
	LastSeenMessage *primitive.ObjectID `bson:"lastSeenMessage,omitempty" json:"lastSeenMessage,omitempty"`
}

// Conversation is a 1:1 or group conversation document
type Conversation struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name         string              `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup      bool                `bson:"isGroup" json:"isGroup"`
	Participants []Participant       `bson:"participants" json:"participants"`
	Owner        string              `bson:"owner,omitempty" json:"owner,omitempty"`
	Admins       []string            `bson:"admins" json:"admins"`
	Avatar       string              `bson:"avatar" json:"avatar"`
	LastMessage  *primitive.ObjectID `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	CallStatus   CallStatus          `bson:"callStatus" json:"callStatus"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ParticipantIDs returns the user ids of all participants in document order.
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

func (c *Conversation) HasParticipant(userID string) bool {
	return slices.ContainsFunc(c.Participants, func(p Participant) bool { return p.UserID == userID })
}

func (c *Conversation) IsAdmin(userID string) bool {
	return slices.Contains(c.Admins, userID)
}

func (c *Conversation) IsOwner(userID string) bool {
	return c.Owner != "" && c.Owner == userID
}

/** -------------------- DTOs -------------------- */
// Request
type CreateConversationRequest struct {
	IsGroup      bool     `json:"isGroup"`
	Name         string   `json:"name" binding:"omitempty,max=100"`
	Participants []string `json:"participants" binding:"required"`
}

type MarkLastSeenRequest struct {
	MessageID string `json:"messageId" binding:"required"`
}

type TypingStatusRequest struct {
	IsTyping *bool `json:"isTyping" binding:"required"`
}

type UpdateConversationRequest struct {
	Name string `form:"name" binding:"omitempty,max=100"`
}

type MuteConversationRequest struct {
	Mute *bool `json:"mute" binding:"required"`
}

type AddParticipantsRequest struct {
	NewUserIDs []string `json:"newUserIds" binding:"required,min=1"`
}

type TransferOwnershipRequest struct {
	NewOwnerID string `json:"newOwnerId" binding:"required"`
}

// Response
type ParticipantResponse struct {
	User            UserSummary `json:"user"`
	IsMuted         bool        `json:"isMuted"`
	LastSeenMessage string      `json:"lastSeenMessage,omitempty"`
}

// ConversationResponse is a conversation with its participants populated
type ConversationResponse struct {
	ID           string                `json:"_id"`
	Name         string                `json:"name,omitempty"`
	IsGroup      bool                  `json:"isGroup"`
	Participants []ParticipantResponse `json:"participants"`
	Owner        string                `json:"owner,omitempty"`
	Admins       []string              `json:"admins"`
	Avatar       string                `json:"avatar"`
	LastMessage  *MessageResponse      `json:"lastMessage,omitempty"`
	CallStatus   CallStatus            `json:"callStatus"`
	UnreadCount  int64                 `json:"unreadCount"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// GroupSummary is a group conversation as listed in search results.
type GroupSummary struct {
	ID               string `json:"_id"`
	Name             string `json:"name"`
	Avatar           string `json:"avatar"`
	ParticipantCount int    `json:"participantCount"`
}

// LeaveConversationResponse reports whether the conversation was deleted
// because its last participant left.
type LeaveConversationResponse struct {
	Message      string                `json:"message"`
	Deleted      bool                  `json:"deleted"`
	Conversation *ConversationResponse `json:"conversation,omitempty"`
}

// NewConversationResponse builds the response from a document and the users
// referenced by it. Unknown users keep their bare id.
func NewConversationResponse(c *Conversation, users map[string]UserSummary) *ConversationResponse {
	resp := &ConversationResponse{
		ID:           c.ID.Hex(),
		Name:         c.Name,
		IsGroup:      c.IsGroup,
		Participants: make([]ParticipantResponse, 0, len(c.Participants)),
		Owner:        c.Owner,
		Admins:       c.Admins,
		Avatar:       c.Avatar,
		CallStatus:   c.CallStatus,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if resp.Admins == nil {
		resp.Admins = []string{}
	}
	for _, p := range c.Participants {
		summary, ok := users[p.UserID]
		if !ok {
			summary = UserSummary{ID: p.UserID}
		}
		pr := ParticipantResponse{User: summary, IsMuted: p.IsMuted}
		if p.LastSeenMessage != nil {
			pr.LastSeenMessage = p.LastSeenMessage.Hex()
		}
		resp.Participants = append(resp.Participants, pr)
	}
	return resp
}
