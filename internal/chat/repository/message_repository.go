package repository

import (
	"context"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository durable message store. Find methods return (nil, nil)
// when the document does not exist; only infrastructure failures surface
// as errors.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// Update replaces the stored document with the mutated message in a
	// single write
	Update(ctx context.Context, msg *domain.Message) error
	// FindDirect pages through the conversation between two users, oldest
	// first within the returned page
	FindDirect(ctx context.Context, userA, userB string, page, limit int64) ([]domain.Message, error)
	// FindByRoom pages through a room's messages, oldest first within the
	// returned page
	FindByRoom(ctx context.Context, roomID string, page, limit int64) ([]domain.Message, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository backed by mongo
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) Update(ctx context.Context, msg *domain.Message) error {
	filter := bson.M{"_id": msg.ID}
	update := bson.M{"$set": msg}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *messageRepository) FindDirect(ctx context.Context, userA, userB string, page, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userA, "recipient_id": userB},
			{"sender_id": userB, "recipient_id": userA},
		},
	}
	return r.findPage(ctx, filter, page, limit)
}

func (r *messageRepository) FindByRoom(ctx context.Context, roomID string, page, limit int64) ([]domain.Message, error) {
	return r.findPage(ctx, bson.M{"room_id": roomID}, page, limit)
}

// findPage fetches one page sorted newest first, then reverses so callers
// see chronological order
func (r *messageRepository) findPage(ctx context.Context, filter bson.M, page, limit int64) ([]domain.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
