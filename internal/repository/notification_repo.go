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

// NotificationRepository is the durable side of notification fan-out.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	SetDelivered(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type mongoNotificationRepo struct {
	col *mongo.Collection
}

func NewMongoNotificationRepo(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepo{col: db.Collection("notifications")}
}

func (r *mongoNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.CreatedAt = time.Now().UTC()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, n)
	return err
}

func (r *mongoNotificationRepo) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoNotificationRepo) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoNotificationRepo) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *mongoNotificationRepo) SetDelivered(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"delivered": true}})
	return err
}

func (r *mongoNotificationRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
