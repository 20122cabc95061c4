package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-realtime/internal/models"

	"github.com/google/uuid"
)

// EventName identifies a realtime event on the wire.
type EventName string

const (
	// Presence
	EventOnlineUsers EventName = "onlineUsers"

	// Typing relay
	EventTyping     EventName = "typing"
	EventStopTyping EventName = "stopTyping"

	// Conversation domain events
	EventNewMessage              EventName = "new_message"
	EventNewConversation         EventName = "new_conversation"
	EventAddedToConversation     EventName = "added_to_conversation"
	EventRemovedFromConversation EventName = "removed_from_conversation"
	EventPromotedToAdmin         EventName = "promoted_to_admin"
	EventDemotedFromAdmin        EventName = "demoted_from_admin"
	EventOwnershipTransferred    EventName = "ownership_transferred"
	EventMessagesSeen            EventName = "messages_seen"

	// Accepted from older clients that still join rooms explicitly. Delivery is
	// per-user so the frame has no effect.
	EventJoinRoom EventName = "joinRoom"

	EventError EventName = "error"
)

// String returns the string representation of the EventName
func (e EventName) String() string {
	return string(e)
}

// IsValid checks if the EventName is part of the catalog
func (e EventName) IsValid() bool {
	switch e {
	case EventOnlineUsers, EventTyping, EventStopTyping, EventNewMessage,
		EventNewConversation, EventAddedToConversation, EventRemovedFromConversation,
		EventPromotedToAdmin, EventDemotedFromAdmin, EventOwnershipTransferred,
		EventMessagesSeen, EventJoinRoom, EventError:
		return true
	default:
		return false
	}
}

// IsInbound reports whether clients are allowed to send the event.
func (e EventName) IsInbound() bool {
	switch e {
	case EventTyping, EventStopTyping, EventJoinRoom:
		return true
	default:
		return false
	}
}

// Event is the envelope of every frame pushed to a connection.
type Event struct {
	ID        string    `json:"id"`
	Event     EventName `json:"event"`
	Data      any       `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

// NewEvent creates an event envelope with a fresh id and the current time.
func NewEvent(name EventName, data any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Event:     name,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Encode serializes the envelope into a text frame payload.
func (e *Event) Encode() ([]byte, error) {
	if !e.Event.IsValid() {
		return nil, fmt.Errorf("invalid event name: %s", e.Event)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", e.Event, err)
	}
	return data, nil
}

// InboundFrame is what clients send over the socket.
type InboundFrame struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// UserSummary is the public view of a user carried inside events.
type UserSummary = models.UserSummary

// TypingRequest is the inbound payload of typing/stopTyping frames.
type TypingRequest struct {
	ConversationID string       `json:"conversationId"`
	User           *UserSummary `json:"user,omitempty"`
}

// TypingPayload is relayed to the other members of the conversation.
type TypingPayload struct {
	ConversationID string      `json:"conversationId"`
	User           UserSummary `json:"user"`
}

// SeenPayload is sent when a member marks a conversation as read.
type SeenPayload struct {
	ConversationID string      `json:"conversationId"`
	User           UserSummary `json:"user"`
}

// ConversationNotice is the payload of membership and role change events.
type ConversationNotice struct {
	Conversation any    `json:"conversation"`
	Message      string `json:"message"`
}

// NewMessagePayload carries a freshly sent message. Conversation is only set
// when the message opened a new 1:1 conversation.
type NewMessagePayload struct {
	Message      any `json:"message"`
	Conversation any `json:"conversation,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
