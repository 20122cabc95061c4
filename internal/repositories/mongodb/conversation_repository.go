package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"chat-realtime/internal/database"
	"chat-realtime/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection(database.ConversationsCollection)}
}

// parseConversationID treats malformed ids as unknown conversations.
func parseConversationID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrConversationNotFound
	}
	return oid, nil
}

func conversationNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrConversationNotFound
	}
	return err
}

func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	if conv.Admins == nil {
		conv.Admins = []string{}
	}
	if conv.CallStatus == "" {
		conv.CallStatus = models.CallStatusNone
	}
	conv.CreatedAt, conv.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	oid, err := parseConversationID(id)
	if err != nil {
		return nil, err
	}

	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&conv); err != nil {
		return nil, conversationNotFound(err)
	}
	return &conv, nil
}

// ListForUser returns the user's conversations, most recently active first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"participants.user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	convs := []models.Conversation{}
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

// SearchGroups returns the user's group conversations whose name contains
// query, case-insensitively.
func (r *ConversationRepository) SearchGroups(ctx context.Context, userID, query string, limit int) ([]models.Conversation, error) {
	filter := bson.M{
		"isGroup":           true,
		"participants.user": userID,
		"name":              bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search groups: %w", err)
	}

	convs := []models.Conversation{}
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	return convs, nil
}

// FindDirect returns the 1:1 conversation between two users.
func (r *ConversationRepository) FindDirect(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	filter := bson.M{
		"isGroup":           false,
		"participants.user": bson.M{"$all": bson.A{userA, userB}},
	}

	var conv models.Conversation
	if err := r.coll.FindOne(ctx, filter).Decode(&conv); err != nil {
		return nil, conversationNotFound(err)
	}
	return &conv, nil
}

// ParticipantUserIDs reads only the member list of a conversation.
func (r *ConversationRepository) ParticipantUserIDs(ctx context.Context, conversationID string) ([]string, error) {
	oid, err := parseConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Participants []models.Participant `bson:"participants"`
	}
	opts := options.FindOne().SetProjection(bson.M{"participants.user": 1})
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		return nil, conversationNotFound(err)
	}

	ids := make([]string, 0, len(doc.Participants))
	for _, p := range doc.Participants {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// Save replaces the stored document with conv.
func (r *ConversationRepository) Save(ctx context.Context, conv *models.Conversation) error {
	conv.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": conv.ID}, conv)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseConversationID(id)
	if err != nil {
		return err
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// updateParticipant sets fields on the caller's participant entry.
func (r *ConversationRepository) updateParticipant(ctx context.Context, conversationID, userID string, set bson.M) error {
	oid, err := parseConversationID(conversationID)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "participants.user": userID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) SetLastSeen(ctx context.Context, conversationID, userID string, messageID primitive.ObjectID) error {
	return r.updateParticipant(ctx, conversationID, userID, bson.M{"participants.$.lastSeenMessage": messageID})
}

func (r *ConversationRepository) SetMuted(ctx context.Context, conversationID, userID string, muted bool) error {
	return r.updateParticipant(ctx, conversationID, userID, bson.M{"participants.$.isMuted": muted})
}

func (r *ConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"lastMessage": messageID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set last message: %w", err)
	}
	return nil
}

// AddParticipants pushes each user that is not a member yet and returns the
// updated conversation. Every push is conditional on the user being absent,
// so it never rewrites participants changed by a concurrent update.
func (r *ConversationRepository) AddParticipants(ctx context.Context, conversationID string, userIDs []string) (*models.Conversation, error) {
	oid, err := parseConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, userID := range userIDs {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": oid, "participants.user": bson.M{"$ne": userID}},
			bson.M{
				"$push": bson.M{"participants": models.Participant{UserID: userID}},
				"$set":  bson.M{"updatedAt": now},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add participant %s: %w", userID, err)
		}
	}
	return r.FindByID(ctx, conversationID)
}

// RemoveParticipant drops the user from participants and admins and returns
// the updated conversation.
func (r *ConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	oid, err := parseConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$pull": bson.M{
			"participants": bson.M{"user": userID},
			"admins":       userID,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conv models.Conversation
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&conv); err != nil {
		return nil, conversationNotFound(err)
	}
	return &conv, nil
}
