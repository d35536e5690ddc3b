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

// ConversationRepository persists conversation records and the denormalized
// latest-message pointer.
type ConversationRepository interface {
	Create(ctx context.Context, c *models.Conversation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	// FindDirect looks up the single direct conversation between a pair,
	// regardless of participant order. Returns nil when none exists.
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Conversation, error)
	SetLastMessage(ctx context.Context, id primitive.ObjectID, m *models.Message) error
}

type mongoConversationRepo struct {
	col *mongo.Collection
}

func NewMongoConversationRepo(db *mongo.Database) ConversationRepository {
	return &mongoConversationRepo{col: db.Collection("conversations")}
}

func (r *mongoConversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *mongoConversationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var c models.Conversation
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoConversationRepo) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	filter := bson.M{
		"is_group":     false,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
	var c models.Conversation
	err := r.col.FindOne(ctx, filter).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *mongoConversationRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoConversationRepo) SetLastMessage(ctx context.Context, id primitive.ObjectID, m *models.Message) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_message": m, "updated_at": time.Now().UTC()},
	})
	return err
}
