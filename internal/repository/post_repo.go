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

// PostRepository persists posts with their embedded comments and like set.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID primitive.ObjectID, page, pageSize int64) ([]*models.Post, error)
	// Feed returns the newest posts authored by any of authorIDs.
	Feed(ctx context.Context, authorIDs []primitive.ObjectID, page, pageSize int64) ([]*models.Post, error)
	Update(ctx context.Context, id primitive.ObjectID, text string, mediaURLs []string) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	// ToggleLike flips userID's membership in the like set and reports the
	// resulting state. $addToSet/$pull keep the set duplicate-free.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (liked bool, err error)
	AddComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error
	RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

type mongoPostRepo struct {
	col *mongo.Collection
}

func NewMongoPostRepo(db *mongo.Database) PostRepository {
	return &mongoPostRepo{col: db.Collection("posts")}
}

func (r *mongoPostRepo) Create(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Likes == nil {
		p.Likes = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *mongoPostRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	err := r.col.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoPostRepo) find(ctx context.Context, filter bson.M, page, pageSize int64) ([]*models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoPostRepo) ListByAuthor(ctx context.Context, authorID primitive.ObjectID, page, pageSize int64) ([]*models.Post, error) {
	return r.find(ctx, bson.M{"author_id": authorID, "deleted": false}, page, pageSize)
}

func (r *mongoPostRepo) Feed(ctx context.Context, authorIDs []primitive.ObjectID, page, pageSize int64) ([]*models.Post, error) {
	return r.find(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}, "deleted": false}, page, pageSize)
}

func (r *mongoPostRepo) Update(ctx context.Context, id primitive.ObjectID, text string, mediaURLs []string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"text": text, "media_urls": mediaURLs, "updated_at": time.Now().UTC()},
	})
	return err
}

func (r *mongoPostRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deleted": true}})
	return err
}

func (r *mongoPostRepo) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	// already liked: toggle off
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"likes": userID}})
	return false, err
}

func (r *mongoPostRepo) AddComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": c}})
	return err
}

func (r *mongoPostRepo) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": postID},
		bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}})
	return err
}

func (r *mongoPostRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"deleted": false})
}
