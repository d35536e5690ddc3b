package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/social-app/internal/models"
)

// UserRepository persists accounts and the social graph edges stored on them.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	Search(ctx context.Context, query string, limit int64) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context, page, pageSize int64) ([]*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error

	AddFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error
	RemoveFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error
	AddBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error
	RemoveBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error

	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type mongoUserRepo struct {
	col *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) UserRepository {
	return &mongoUserRepo{col: db.Collection("users")}
}

func (r *mongoUserRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Followed == nil {
		u.Followed = []primitive.ObjectID{}
	}
	if u.Followers == nil {
		u.Followers = []primitive.ObjectID{}
	}
	if u.BlockedUsers == nil {
		u.BlockedUsers = []primitive.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, u)
	return err
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepo) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoUserRepo) Search(ctx context.Context, query string, limit int64) ([]*models.User, error) {
	filter := bson.M{
		"username":  bson.M{"$regex": query, "$options": "i"},
		"is_active": true,
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoUserRepo) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": u})
	return err
}

func (r *mongoUserRepo) List(ctx context.Context, page, pageSize int64) ([]*models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoUserRepo) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	return r.setField(ctx, id, "role", role)
}

func (r *mongoUserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	return r.setField(ctx, id, "is_active", active)
}

func (r *mongoUserRepo) setField(ctx context.Context, id primitive.ObjectID, field string, val interface{}) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{field: val, "updated_at": time.Now().UTC()},
	})
	return err
}

// AddFollowEdge writes both sides of the symmetric pair. Mongo has no
// multi-document transaction on a standalone deployment, so the second write
// is compensated: if followers cannot be updated the followed entry is pulled
// back out so the graph never stays asymmetric.
func (r *mongoUserRepo) AddFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$addToSet": bson.M{"followed": followee}})
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": followee},
		bson.M{"$addToSet": bson.M{"followers": follower}})
	if err != nil {
		_, rollbackErr := r.col.UpdateOne(ctx, bson.M{"_id": follower},
			bson.M{"$pull": bson.M{"followed": followee}})
		if rollbackErr != nil {
			return fmt.Errorf("follow edge partially written: %w (rollback: %v)", err, rollbackErr)
		}
		return err
	}
	return nil
}

func (r *mongoUserRepo) RemoveFollowEdge(ctx context.Context, follower, followee primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": follower},
		bson.M{"$pull": bson.M{"followed": followee}})
	if err != nil {
		return err
	}
	_, err = r.col.UpdateOne(ctx, bson.M{"_id": followee},
		bson.M{"$pull": bson.M{"followers": follower}})
	return err
}

func (r *mongoUserRepo) AddBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": blocker},
		bson.M{"$addToSet": bson.M{"blocked_users": blocked}})
	return err
}

func (r *mongoUserRepo) RemoveBlock(ctx context.Context, blocker, blocked primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": blocker},
		bson.M{"$pull": bson.M{"blocked_users": blocked}})
	return err
}

func (r *mongoUserRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *mongoUserRepo) CountActive(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"is_active": true})
}
