package websocket

import (
	"context"
	"log/slog"

	"chat-realtime/internal/models"
)

// EventPublisher forwards encoded events to an external stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Notifier turns conversation changes into realtime events. Every event is
// pushed to the live connections of its audience first and then, when a
// publisher is configured, published under the conversation id.
type Notifier struct {
	rooms     *Rooms
	fanout    *Fanout
	publisher EventPublisher
	logger    *slog.Logger
}

type NotifierOption func(*Notifier)

func WithPublisher(p EventPublisher) NotifierOption {
	return func(n *Notifier) { n.publisher = p }
}

func NewNotifier(rooms *Rooms, fanout *Fanout, logger *slog.Logger, opts ...NotifierOption) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{rooms: rooms, fanout: fanout, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ConversationCreated tells every participant except the creator.
func (n *Notifier) ConversationCreated(ctx context.Context, conv *models.ConversationResponse, creatorID string) {
	recipients := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p.User.ID != creatorID {
			recipients = append(recipients, p.User.ID)
		}
	}
	n.notify(ctx, conv.ID, recipients, NewEvent(EventNewConversation, conv))
}

// MessageSent tells the other participants about a new message. created is
// non-nil only when the message opened the conversation.
func (n *Notifier) MessageSent(ctx context.Context, msg *models.MessageResponse, created *models.ConversationResponse) {
	recipients, err := n.rooms.RecipientsFor(ctx, msg.ConversationID, msg.Sender.ID)
	if err != nil {
		n.logger.Error("Failed to resolve message recipients", "conversationID", msg.ConversationID, "error", err)
		return
	}

	payload := NewMessagePayload{Message: msg}
	if created != nil {
		payload.Conversation = created
	}
	n.notify(ctx, msg.ConversationID, recipients, NewEvent(EventNewMessage, payload))
}

// ParticipantsAdded tells only the users that were added.
func (n *Notifier) ParticipantsAdded(ctx context.Context, conv *models.ConversationResponse, addedUserIDs []string) {
	n.notify(ctx, conv.ID, addedUserIDs, NewEvent(EventAddedToConversation, ConversationNotice{
		Conversation: conv,
		Message:      "You have been added to a conversation",
	}))
}

func (n *Notifier) ParticipantRemoved(ctx context.Context, conv *models.ConversationResponse, userID string) {
	n.notify(ctx, conv.ID, []string{userID}, NewEvent(EventRemovedFromConversation, ConversationNotice{
		Conversation: conv,
		Message:      "You have been removed from the conversation",
	}))
}

func (n *Notifier) AdminPromoted(ctx context.Context, conv *models.ConversationResponse, userID string) {
	n.notify(ctx, conv.ID, []string{userID}, NewEvent(EventPromotedToAdmin, ConversationNotice{
		Conversation: conv,
		Message:      "You have been promoted to admin",
	}))
}

func (n *Notifier) AdminDemoted(ctx context.Context, conv *models.ConversationResponse, userID string) {
	n.notify(ctx, conv.ID, []string{userID}, NewEvent(EventDemotedFromAdmin, ConversationNotice{
		Conversation: conv,
		Message:      "You have been demoted from admin",
	}))
}

func (n *Notifier) OwnershipTransferred(ctx context.Context, conv *models.ConversationResponse, newOwnerID string) {
	n.notify(ctx, conv.ID, []string{newOwnerID}, NewEvent(EventOwnershipTransferred, ConversationNotice{
		Conversation: conv,
		Message:      "You are now the owner of the conversation",
	}))
}

// MessagesSeen tells the other participants that user has read the
// conversation.
func (n *Notifier) MessagesSeen(ctx context.Context, conversationID string, user models.UserSummary) {
	recipients, err := n.rooms.RecipientsFor(ctx, conversationID, user.ID)
	if err != nil {
		n.logger.Error("Failed to resolve seen recipients", "conversationID", conversationID, "error", err)
		return
	}
	n.notify(ctx, conversationID, recipients, NewEvent(EventMessagesSeen, SeenPayload{
		ConversationID: conversationID,
		User:           user,
	}))
}

func (n *Notifier) notify(ctx context.Context, conversationID string, recipients []string, event *Event) {
	n.fanout.EmitEvent(recipients, event)

	if n.publisher == nil {
		return
	}
	data, err := event.Encode()
	if err != nil {
		n.logger.Error("Failed to encode event for publishing", "event", event.Event, "error", err)
		return
	}
	if err := n.publisher.Publish(ctx, conversationID, data); err != nil {
		n.logger.Warn("Failed to publish event",
			"event", event.Event,
			"conversationID", conversationID,
			"error", err,
		)
	}
}
