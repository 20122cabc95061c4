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

// MessageService sends, lists and deletes messages.
type MessageService struct {
	convs    ConversationRepository
	msgs     MessageRepository
	users    UserDirectory
	media    MediaUploader
	notifier Notifier
	logger   *slog.Logger
}

func NewMessageService(
	convs ConversationRepository,
	msgs MessageRepository,
	users UserDirectory,
	media MediaUploader,
	notifier Notifier,
	logger *slog.Logger,
) *MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageService{
		convs:    convs,
		msgs:     msgs,
		users:    users,
		media:    media,
		notifier: notifier,
		logger:   logger,
	}
}

// Send stores a message and notifies the other members of its conversation.
//
// The message goes into req.ConversationID when set; otherwise into the 1:1
// conversation with req.ReceiverID, which is created on first contact. The
// response carries the conversation only in that case.
func (s *MessageService) Send(ctx context.Context, senderID string, req *models.SendMessageRequest, files []*multipart.FileHeader) (*models.SendMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && len(files) == 0 {
		return nil, ErrEmptyMessage
	}

	conv, created, err := s.resolveConversation(ctx, senderID, req)
	if err != nil {
		return nil, err
	}

	var reply *models.Message
	if req.ReplyTo != "" {
		if created != nil {
			return nil, ErrReplyOutsideThread
		}
		if reply, err = s.msgs.FindByID(ctx, req.ReplyTo); err != nil {
			return nil, err
		}
		if reply.ConversationID != conv.ID {
			return nil, ErrReplyOutsideThread
		}
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		SeenBy:         []string{senderID},
		Media:          []models.Media{},
	}
	if reply != nil {
		msg.ReplyTo = &reply.ID
	}

	// Nothing is uploaded or written until every participant is resolved.
	summaries, err := s.users.Summaries(ctx, conv.ParticipantIDs())
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		media, err := s.media.Upload(ctx, "messages/"+conv.ID.Hex(), file)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", file.Filename, err)
		}
		msg.Media = append(msg.Media, *media)
	}

	if created != nil {
		if err := s.convs.Create(ctx, conv); err != nil {
			return nil, err
		}
	}
	if err := s.msgs.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		s.logger.Error("Failed to update last message", "conversationID", conv.ID.Hex(), "messageID", msg.ID.Hex(), "error", err)
	}

	resp := &models.SendMessageResponse{
		Message: models.NewMessageResponse(msg, summaryOf(summaries, senderID), reply),
	}
	if created != nil {
		resp.Conversation = models.NewConversationResponse(conv, summaries)
	}

	s.logger.Debug("Message sent", "messageID", resp.Message.ID, "conversationID", resp.Message.ConversationID, "senderID", senderID)
	s.notifier.MessageSent(ctx, resp.Message, resp.Conversation)
	return resp, nil
}

// resolveConversation returns the target conversation. created is non-nil
// when the conversation does not exist yet; its id is already assigned so
// attachments can be stored before it is persisted.
func (s *MessageService) resolveConversation(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Conversation, *models.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := s.convs.FindByID(ctx, req.ConversationID)
		if err != nil {
			return nil, nil, err
		}
		if !conv.HasParticipant(senderID) {
			return nil, nil, ErrForbidden
		}
		return conv, nil, nil
	}

	receiverID := strings.TrimSpace(req.ReceiverID)
	switch {
	case receiverID == "":
		return nil, nil, ErrMissingRecipient
	case receiverID == senderID:
		return nil, nil, ErrMessageToSelf
	}

	conv, err := s.convs.FindDirect(ctx, senderID, receiverID)
	if err == nil {
		return conv, nil, nil
	}
	if !errors.Is(err, models.ErrConversationNotFound) {
		return nil, nil, err
	}

	known, err := s.users.Summaries(ctx, []string{receiverID})
	if err != nil {
		return nil, nil, err
	}
	if _, ok := known[receiverID]; !ok {
		return nil, nil, models.ErrUserNotFound
	}

	conv = &models.Conversation{
		ID: primitive.NewObjectID(),
		Participants: []models.Participant{
			{UserID: senderID},
			{UserID: receiverID},
		},
	}
	return conv, conv, nil
}

// List returns the conversation's messages in sending order, without the
// ones the caller deleted for themselves.
func (s *MessageService) List(ctx context.Context, userID, conversationID string) ([]*models.MessageResponse, error) {
	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	msgs, err := s.msgs.ListByConversation(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}

	replyIDs := lo.Uniq(lo.FilterMap(msgs, func(m models.Message, _ int) (primitive.ObjectID, bool) {
		if m.ReplyTo == nil {
			return primitive.NilObjectID, false
		}
		return *m.ReplyTo, true
	}))
	var replies map[primitive.ObjectID]models.Message
	if len(replyIDs) > 0 {
		found, err := s.msgs.FindByIDs(ctx, replyIDs)
		if err != nil {
			return nil, err
		}
		replies = lo.KeyBy(found, func(m models.Message) primitive.ObjectID { return m.ID })
	}

	senders := lo.Map(msgs, func(m models.Message, _ int) string { return m.SenderID })
	summaries, err := s.users.Summaries(ctx, senders)
	if err != nil {
		return nil, err
	}

	out := make([]*models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		var reply *models.Message
		if msgs[i].ReplyTo != nil {
			if r, ok := replies[*msgs[i].ReplyTo]; ok {
				reply = &r
			}
		}
		out = append(out, models.NewMessageResponse(&msgs[i], summaryOf(summaries, msgs[i].SenderID), reply))
	}
	return out, nil
}

// MarkSeen marks every message of the conversation as seen by the user.
func (s *MessageService) MarkSeen(ctx context.Context, userID, conversationID string) (*models.MarkSeenResponse, error) {
	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	updated, err := s.msgs.MarkSeen(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.users.Summaries(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	s.notifier.MessagesSeen(ctx, conversationID, summaryOf(summaries, userID))
	return &models.MarkSeenResponse{Updated: updated}, nil
}

// DeleteForUser hides a message from the user only.
func (s *MessageService) DeleteForUser(ctx context.Context, userID, messageID string) error {
	if _, err := s.visibleMessage(ctx, userID, messageID); err != nil {
		return err
	}
	return s.msgs.DeleteForUser(ctx, messageID, userID)
}

// DeleteCompletely removes a message for everyone. Only its sender may do so.
func (s *MessageService) DeleteCompletely(ctx context.Context, userID, messageID string) error {
	msg, err := s.msgs.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return ErrForbidden
	}

	if err := s.msgs.Delete(ctx, messageID); err != nil {
		return err
	}
	s.logger.Info("Message deleted", "messageID", messageID, "conversationID", msg.ConversationID.Hex(), "userID", userID)
	return nil
}

// visibleMessage loads a message from a conversation the user belongs to.
func (s *MessageService) visibleMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.msgs.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.FindByID(ctx, msg.ConversationID.Hex())
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return msg, nil
}
