package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/social-app/internal/models"
)

// MessageRepository persists messages. The stored creation order is the
// authoritative ordering for a conversation.
type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListByConversation(ctx context.Context, convID primitive.ObjectID) ([]*models.Message, error)
	// MarkRead adds readerID to the read set of every message in the
	// conversation that does not contain it yet.
	MarkRead(ctx context.Context, convID, readerID primitive.ObjectID) (int64, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type mongoMessageRepo struct {
	col *mongo.Collection
}

func NewMongoMessageRepo(db *mongo.Database) MessageRepository {
	return &mongoMessageRepo{col: db.Collection("messages")}
}

func (r *mongoMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	m.CreatedAt = time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.ReadBy == nil {
		m.ReadBy = []primitive.ObjectID{m.SenderID}
	}
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *mongoMessageRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mongoMessageRepo) ListByConversation(ctx context.Context, convID primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{"conversation_id": convID, "deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoMessageRepo) MarkRead(ctx context.Context, convID, readerID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"conversation_id": convID, "read_by": bson.M{"$ne": readerID}},
		bson.M{"$addToSet": bson.M{"read_by": readerID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoMessageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deleted": true}})
	return err
}

func (r *mongoMessageRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
