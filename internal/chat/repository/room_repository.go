package repository

import (
	"context"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoomRepository room store and membership resolver. FindByID returns
// (nil, nil) for an unknown room so the fan-out path can treat a deleted
// room as an empty audience.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	FindByID(ctx context.Context, roomID string) (*domain.Room, error)
	// Update writes the full membership state (members, admins, active
	// flag) in one document replace so the admin-promotion transition is
	// a single write
	Update(ctx context.Context, room *domain.Room) error
	FindByMember(ctx context.Context, userID string) ([]domain.Room, error)
}

type roomRepository struct {
	coll *mongo.Collection
}

// NewMongoRoomRepository create a RoomRepository backed by mongo
func NewMongoRoomRepository(db *mongo.Database) RoomRepository {
	return &roomRepository{
		coll: db.Collection("rooms"),
	}
}

func (r *roomRepository) Create(ctx context.Context, room *domain.Room) error {
	_, err := r.coll.InsertOne(ctx, room)
	return err
}

func (r *roomRepository) FindByID(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := r.coll.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	filter := bson.M{"_id": room.ID}
	update := bson.M{"$set": room}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}

func (r *roomRepository) FindByMember(ctx context.Context, userID string) ([]domain.Room, error) {
	filter := bson.M{
		"members.user_id": userID,
		"is_active":       true,
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var rooms []domain.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
