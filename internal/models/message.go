package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// enum
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypePDF   MediaType = "pdf"
	MediaTypeFile  MediaType = "file"
)

/** --------------------ENTITIES-------------------- */
// Media is an attachment stored in object storage
type Media struct {
	URL      string    `bson:"url" json:"url"`
	Type     MediaType `bson:"type" json:"type"`
	FileName string    `bson:"fileName,omitempty" json:"fileName,omitempty"`
	Size     int64     `bson:"size,omitempty" json:"size,omitempty"`
}

// Message is a chat message document
type Message struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ConversationID primitive.ObjectID  `bson:"conversationId" json:"conversationId"`
	SenderID       string              `bson:"senderId" json:"senderId"`
	Content        string              `bson:"content" json:"content"`
	Media          []Media             `bson:"media" json:"media"`
	SeenBy         []string            `bson:"seenBy" json:"seenBy"`
	ReplyTo        *primitive.ObjectID `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	DeletedFor     []string            `bson:"deletedFor" json:"-"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

/** -------------------- DTOs -------------------- */
// Request
// SendMessageRequest is bound from a JSON body or multipart form; attachments
// come in the "files" form field.
type SendMessageRequest struct {
	ConversationID string `json:"conversationId" form:"conversationId"`
	ReceiverID     string `json:"receiverId" form:"receiverId"`
	Content        string `json:"content" form:"content" binding:"max=5000"`
	ReplyTo        string `json:"replyTo" form:"replyTo"`
}

// Response
type ReplyPreview struct {
	ID      string  `json:"_id"`
	Content string  `json:"content"`
	Media   []Media `json:"media"`
}

type MessageResponse struct {
	ID             string        `json:"_id"`
	ConversationID string        `json:"conversationId"`
	Sender         UserSummary   `json:"sender"`
	Content        string        `json:"content"`
	Media          []Media       `json:"media"`
	SeenBy         []string      `json:"seenBy"`
	ReplyTo        *ReplyPreview `json:"replyTo,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// SendMessageResponse carries the conversation only when the message opened it.
type SendMessageResponse struct {
	Message      *MessageResponse      `json:"message"`
	Conversation *ConversationResponse `json:"conversation,omitempty"`
}

type MarkSeenResponse struct {
	Updated int64 `json:"updated"`
}

// NewMessageResponse builds the response for m. reply may be nil.
func NewMessageResponse(m *Message, sender UserSummary, reply *Message) *MessageResponse {
	resp := &MessageResponse{
		ID:             m.ID.Hex(),
		ConversationID: m.ConversationID.Hex(),
		Sender:         sender,
		Content:        m.Content,
		Media:          m.Media,
		SeenBy:         m.SeenBy,
		CreatedAt:      m.CreatedAt,
	}
	if resp.Media == nil {
		resp.Media = []Media{}
	}
	if resp.SeenBy == nil {
		resp.SeenBy = []string{}
	}
	if reply != nil {
		resp.ReplyTo = &ReplyPreview{ID: reply.ID.Hex(), Content: reply.Content, Media: reply.Media}
	}
	return resp
}
