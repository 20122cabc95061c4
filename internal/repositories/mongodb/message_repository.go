package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-realtime/internal/database"
	"chat-realtime/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(database.MessagesCollection)}
}

func parseMessageID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrMessageNotFound
	}
	return oid, nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.Media == nil {
		msg.Media = []models.Media{}
	}
	if msg.SeenBy == nil {
		msg.SeenBy = []string{}
	}
	if msg.DeletedFor == nil {
		msg.DeletedFor = []string{}
	}
	msg.CreatedAt, msg.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := parseMessageID(id)
	if err != nil {
		return nil, err
	}

	var msg models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// FindByIDs loads the given messages; unknown ids are skipped.
func (r *MessageRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	msgs := []models.Message{}
	if len(ids) == 0 {
		return msgs, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

// ListByConversation returns the conversation's messages in send order,
// without those the viewer deleted for themselves.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID primitive.ObjectID, viewerID string) ([]models.Message, error) {
	filter := bson.M{
		"conversationId": conversationID,
		"deletedFor":     bson.M{"$ne": viewerID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID primitive.ObjectID, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{
		"conversationId": conversationID,
		"seenBy":         bson.M{"$ne": userID},
	})
}

// MarkSeen adds userID to seenBy of every unseen message and returns how many
// messages changed.
func (r *MessageRepository) MarkSeen(ctx context.Context, conversationID primitive.ObjectID, userID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "seenBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"seenBy": userID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages seen: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	oid, err := parseMessageID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"deletedFor": userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete message for user: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseMessageID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, conversationID primitive.ObjectID) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"conversationId": conversationID}); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	return nil
}
