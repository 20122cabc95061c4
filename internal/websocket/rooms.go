package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chat-realtime/internal/models"

	"github.com/samber/lo"
)

// MembershipStore reads the participant list of a conversation.
// Implementations return models.ErrConversationNotFound for unknown ids.
type MembershipStore interface {
	ParticipantUserIDs(ctx context.Context, conversationID string) ([]string, error)
}

// Rooms derives the users that should hear about a conversation.
// Membership changes between events, so every call reads the store again.
type Rooms struct {
	store  MembershipStore
	logger *slog.Logger
}

func NewRooms(store MembershipStore, logger *slog.Logger) *Rooms {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rooms{store: store, logger: logger}
}

// RecipientsFor returns the participants of the conversation without
// excludeUserID. An unknown conversation yields an empty set, not an error.
func (r *Rooms) RecipientsFor(ctx context.Context, conversationID, excludeUserID string) ([]string, error) {
	ids, err := r.store.ParticipantUserIDs(ctx, conversationID)
	if errors.Is(err, models.ErrConversationNotFound) {
		r.logger.Debug("No recipients for unknown conversation", "conversationID", conversationID)
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participants of conversation %s: %w", conversationID, err)
	}

	ids = lo.Uniq(lo.Compact(ids))
	if excludeUserID != "" {
		ids = lo.Without(ids, excludeUserID)
	}
	return ids, nil
}
