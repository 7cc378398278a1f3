package repository

import (
	"context"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository durable notification store
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// FindByID scopes the lookup to the recipient so one user can never
	// touch another's notifications
	FindByID(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error)
	Update(ctx context.Context, n *domain.Notification) error
	MarkAllRead(ctx context.Context, recipientID string, at int64) error
	Delete(ctx context.Context, notificationID, recipientID string) error
	FindByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepository create a NotificationRepository backed by mongo
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		coll: db.Collection("notifications"),
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.coll.InsertOne(ctx, n)
	return err
}

func (r *notificationRepository) FindByID(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error) {
	var n domain.Notification
	filter := bson.M{"_id": notificationID, "recipient_id": recipientID}
	err := r.coll.FindOne(ctx, filter).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	filter := bson.M{"_id": n.ID}
	update := bson.M{"$set": n}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string, at int64) error {
	filter := bson.M{"recipient_id": recipientID, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": at}}
	_, err := r.coll.UpdateMany(ctx, filter, update)
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, notificationID, recipientID string) error {
	filter := bson.M{"_id": notificationID, "recipient_id": recipientID}
	_, err := r.coll.DeleteOne(ctx, filter)
	return err
}

func (r *notificationRepository) FindByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]domain.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	filter := bson.M{"recipient_id": recipientID, "is_read": false}
	return r.coll.CountDocuments(ctx, filter)
}
