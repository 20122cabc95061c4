package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"chat-realtime/internal/models"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationService manages conversations and their membership. Every
// change that other users must see goes through the Notifier.
type ConversationService struct {
	convs    ConversationRepository
	msgs     MessageRepository
	users    UserDirectory
	media    MediaUploader
	notifier Notifier
	logger   *slog.Logger
}

func NewConversationService(
	convs ConversationRepository,
	msgs MessageRepository,
	users UserDirectory,
	media MediaUploader,
	notifier Notifier,
	logger *slog.Logger,
) *ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationService{
		convs:    convs,
		msgs:     msgs,
		users:    users,
		media:    media,
		notifier: notifier,
		logger:   logger,
	}
}

// SearchGroups finds group conversations of userID by name.
func (s *ConversationService) SearchGroups(ctx context.Context, userID, query string) ([]models.GroupSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.GroupSummary{}, nil
	}

	convs, err := s.convs.SearchGroups(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(convs, func(c models.Conversation, _ int) models.GroupSummary {
		return models.GroupSummary{
			ID:               c.ID.Hex(),
			Name:             c.Name,
			Avatar:           c.Avatar,
			ParticipantCount: len(c.Participants),
		}
	}), nil
}

// List returns the user's conversations, most recent first, each with its
// last message and the user's unread count.
func (s *ConversationService) List(ctx context.Context, userID string) ([]*models.ConversationResponse, error) {
	convs, err := s.convs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	lastIDs := make([]primitive.ObjectID, 0, len(convs))
	for _, c := range convs {
		if c.LastMessage != nil {
			lastIDs = append(lastIDs, *c.LastMessage)
		}
	}
	lastMsgs, err := s.msgs.FindByIDs(ctx, lastIDs)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(lastMsgs, func(m models.Message) primitive.ObjectID { return m.ID })

	userIDs := lo.FlatMap(convs, func(c models.Conversation, _ int) []string { return c.ParticipantIDs() })
	userIDs = append(userIDs, lo.Map(lastMsgs, func(m models.Message, _ int) string { return m.SenderID })...)
	summaries, err := s.users.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ConversationResponse, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		resp := models.NewConversationResponse(conv, summaries)
		if conv.LastMessage != nil {
			if last, ok := byID[*conv.LastMessage]; ok {
				resp.LastMessage = models.NewMessageResponse(&last, summaryOf(summaries, last.SenderID), nil)
			}
		}
		if resp.UnreadCount, err = s.msgs.CountUnread(ctx, conv.ID, userID); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *ConversationService) Get(ctx context.Context, userID, id string) (*models.ConversationResponse, error) {
	conv, err := s.memberConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}

	if conv.LastMessage != nil {
		msgs, err := s.msgs.FindByIDs(ctx, []primitive.ObjectID{*conv.LastMessage})
		if err != nil {
			return nil, err
		}
		if len(msgs) == 1 {
			sender := summaryOf(s.summariesOrEmpty(ctx, msgs[0].SenderID), msgs[0].SenderID)
			resp.LastMessage = models.NewMessageResponse(&msgs[0], sender, nil)
		}
	}
	return resp, nil
}

// Create opens a conversation between the creator and req.Participants. A
// group needs at least two other users and is owned by its creator. A direct
// conversation needs exactly one, and an existing one is returned as is.
func (s *ConversationService) Create(ctx context.Context, creatorID string, req *models.CreateConversationRequest) (*models.ConversationResponse, error) {
	others := lo.Without(lo.Uniq(lo.Compact(lo.Map(req.Participants, func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))), creatorID)

	switch {
	case req.IsGroup && len(others) < 2:
		return nil, ErrTooFewParticipants
	case !req.IsGroup && len(others) != 1:
		return nil, ErrDirectParticipants
	}

	known, err := s.users.Summaries(ctx, others)
	if err != nil {
		return nil, err
	}
	if missing := lo.Filter(others, func(id string, _ int) bool { _, ok := known[id]; return !ok }); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParticipants, strings.Join(missing, ", "))
	}

	if !req.IsGroup {
		existing, err := s.convs.FindDirect(ctx, creatorID, others[0])
		if err == nil {
			return s.populate(ctx, existing)
		}
		if !errors.Is(err, models.ErrConversationNotFound) {
			return nil, err
		}
	}

	conv := &models.Conversation{IsGroup: req.IsGroup}
	for _, id := range others {
		conv.Participants = append(conv.Participants, models.Participant{UserID: id})
	}
	conv.Participants = append(conv.Participants, models.Participant{UserID: creatorID})
	if req.IsGroup {
		conv.Name = strings.TrimSpace(req.Name)
		conv.Owner = creatorID
	}

	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}

	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Conversation created", "conversationID", resp.ID, "creatorID", creatorID, "isGroup", conv.IsGroup)
	s.notifier.ConversationCreated(ctx, resp, creatorID)
	return resp, nil
}

// Update renames a conversation and, for groups, replaces its avatar.
func (s *ConversationService) Update(ctx context.Context, userID, id, name string, avatar *multipart.FileHeader) (*models.ConversationResponse, error) {
	conv, err := s.memberConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		conv.Name = name
	}
	if avatar != nil {
		if !conv.IsGroup {
			return nil, ErrAvatarForDirect
		}
		media, err := s.media.Upload(ctx, "avatars/"+conv.ID.Hex(), avatar)
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %w", err)
		}
		conv.Avatar = media.URL
	}

	if err := s.convs.Save(ctx, conv); err != nil {
		return nil, err
	}
	return s.populate(ctx, conv)
}

func (s *ConversationService) MarkLastSeen(ctx context.Context, userID, id, messageID string) error {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return ErrInvalidRequest
	}
	return s.convs.SetLastSeen(ctx, id, userID, oid)
}

func (s *ConversationService) Mute(ctx context.Context, userID, id string, mute bool) error {
	return s.convs.SetMuted(ctx, id, userID, mute)
}

// Leave removes the user from the conversation. The last member leaving
// deletes it with its messages; an owner leaving hands the group over to an
// admin, or to the longest-standing member.
func (s *ConversationService) Leave(ctx context.Context, userID, id string) (*models.LeaveConversationResponse, error) {
	if _, err := s.memberConversation(ctx, userID, id); err != nil {
		return nil, err
	}

	conv, err := s.convs.RemoveParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if len(conv.Participants) == 0 {
		if err := s.convs.Delete(ctx, id); err != nil {
			return nil, err
		}
		if err := s.msgs.DeleteByConversation(ctx, conv.ID); err != nil {
			s.logger.Error("Failed to delete messages of removed conversation", "conversationID", id, "error", err)
		}
		return &models.LeaveConversationResponse{
			Message: "You left the conversation and it has been deleted because no participants left.",
			Deleted: true,
		}, nil
	}

	var successor string
	if conv.IsGroup && conv.Owner == userID {
		successor = conv.ParticipantIDs()[0]
		if len(conv.Admins) > 0 {
			successor = conv.Admins[0]
		}
		conv.Owner = successor
		conv.Admins = lo.Without(conv.Admins, successor)
		if err := s.convs.Save(ctx, conv); err != nil {
			return nil, err
		}
	}

	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}
	if successor != "" {
		s.notifier.OwnershipTransferred(ctx, resp, successor)
	}
	return &models.LeaveConversationResponse{
		Message:      "You left the conversation",
		Conversation: resp,
	}, nil
}

// AddParticipants adds users to a group. Users already in it are skipped and
// only the newly added ones are notified.
func (s *ConversationService) AddParticipants(ctx context.Context, actorID, id string, newUserIDs []string) (*models.ConversationResponse, error) {
	conv, err := s.memberConversation(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !conv.IsGroup {
		return nil, ErrNotGroup
	}

	current := conv.ParticipantIDs()
	added := lo.Filter(lo.Uniq(lo.Compact(newUserIDs)), func(id string, _ int) bool {
		return !lo.Contains(current, id)
	})

	if len(added) > 0 {
		known, err := s.users.Summaries(ctx, added)
		if err != nil {
			return nil, err
		}
		if missing := lo.Filter(added, func(id string, _ int) bool { _, ok := known[id]; return !ok }); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParticipants, strings.Join(missing, ", "))
		}

		if conv, err = s.convs.AddParticipants(ctx, id, added); err != nil {
			return nil, err
		}
	}

	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.notifier.ParticipantsAdded(ctx, resp, added)
	}
	return resp, nil
}

// RemoveParticipant lets the owner or an admin remove a member. The owner
// cannot be removed.
func (s *ConversationService) RemoveParticipant(ctx context.Context, actorID, id, userID string) (*models.ConversationResponse, error) {
	conv, err := s.memberConversation(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if conv.IsOwner(userID) {
		return nil, ErrCannotRemoveOwner
	}
	if !conv.IsOwner(actorID) && !conv.IsAdmin(actorID) {
		return nil, ErrForbidden
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	updated, err := s.convs.RemoveParticipant(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp, err := s.populate(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.notifier.ParticipantRemoved(ctx, resp, userID)
	return resp, nil
}

func (s *ConversationService) AssignAdmin(ctx context.Context, actorID, id, userID string) (*models.ConversationResponse, error) {
	conv, err := s.ownedConversation(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if conv.IsAdmin(userID) {
		return nil, ErrAlreadyAdmin
	}

	conv.Admins = append(conv.Admins, userID)
	if err := s.convs.Save(ctx, conv); err != nil {
		return nil, err
	}
	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}

	s.notifier.AdminPromoted(ctx, resp, userID)
	return resp, nil
}

func (s *ConversationService) RemoveAdmin(ctx context.Context, actorID, id, adminID string) (*models.ConversationResponse, error) {
	conv, err := s.ownedConversation(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !conv.IsAdmin(adminID) {
		return nil, ErrNotAdmin
	}

	conv.Admins = lo.Without(conv.Admins, adminID)
	if err := s.convs.Save(ctx, conv); err != nil {
		return nil, err
	}
	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}

	s.notifier.AdminDemoted(ctx, resp, adminID)
	return resp, nil
}

// TransferOwnership hands the group to another member. The new owner leaves
// the admin list and the previous owner joins it.
func (s *ConversationService) TransferOwnership(ctx context.Context, actorID, id, newOwnerID string) (*models.ConversationResponse, error) {
	conv, err := s.ownedConversation(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if conv.IsOwner(newOwnerID) {
		return nil, ErrAlreadyOwner
	}
	if !conv.HasParticipant(newOwnerID) {
		return nil, ErrNotParticipant
	}

	previous := conv.Owner
	conv.Admins = lo.Without(conv.Admins, newOwnerID)
	if !lo.Contains(conv.Admins, previous) {
		conv.Admins = append(conv.Admins, previous)
	}
	conv.Owner = newOwnerID

	if err := s.convs.Save(ctx, conv); err != nil {
		return nil, err
	}
	resp, err := s.populate(ctx, conv)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ownership transferred", "conversationID", resp.ID, "from", previous, "to", newOwnerID)
	s.notifier.OwnershipTransferred(ctx, resp, newOwnerID)
	return resp, nil
}

// memberConversation loads a conversation the user belongs to.
func (s *ConversationService) memberConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

// ownedConversation loads a conversation only its owner may manage.
func (s *ConversationService) ownedConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwner(userID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

func (s *ConversationService) populate(ctx context.Context, conv *models.Conversation) (*models.ConversationResponse, error) {
	summaries, err := s.users.Summaries(ctx, conv.ParticipantIDs())
	if err != nil {
		return nil, err
	}
	return models.NewConversationResponse(conv, summaries), nil
}

func (s *ConversationService) summariesOrEmpty(ctx context.Context, ids ...string) map[string]models.UserSummary {
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load user summaries", "userIDs", ids, "error", err)
		return map[string]models.UserSummary{}
	}
	return summaries
}

func summaryOf(summaries map[string]models.UserSummary, userID string) models.UserSummary {
	if s, ok := summaries[userID]; ok {
		return s
	}
	return models.UserSummary{ID: userID}
}
