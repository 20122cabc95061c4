package websocket

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

var ErrInvalidTypingEvent = errors.New("typing event requires a conversation id and a user")

// Typing relays typing indicators to the other members of a conversation.
// Nothing is stored; a stop without a preceding start is simply relayed.
type Typing struct {
	rooms  *Rooms
	fanout *Fanout
	logger *slog.Logger
}

func NewTyping(rooms *Rooms, fanout *Fanout, logger *slog.Logger) *Typing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Typing{rooms: rooms, fanout: fanout, logger: logger}
}

func (t *Typing) StartTyping(ctx context.Context, conversationID string, actor UserSummary) error {
	return t.relay(ctx, EventTyping, conversationID, actor)
}

func (t *Typing) StopTyping(ctx context.Context, conversationID string, actor UserSummary) error {
	return t.relay(ctx, EventStopTyping, conversationID, actor)
}

func (t *Typing) relay(ctx context.Context, name EventName, conversationID string, actor UserSummary) error {
	if strings.TrimSpace(conversationID) == "" || strings.TrimSpace(actor.ID) == "" {
		return ErrInvalidTypingEvent
	}

	recipients, err := t.rooms.RecipientsFor(ctx, conversationID, actor.ID)
	if err != nil {
		return err
	}

	t.fanout.Emit(recipients, name, TypingPayload{
		ConversationID: conversationID,
		User:           actor,
	})
	return nil
}
