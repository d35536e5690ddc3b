package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in its post, ordered by insertion.
type Comment struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Post holds the author's content plus the like set and embedded comments.
// Likes are a set: toggling twice returns to the original state.
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID  primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Text      string               `bson:"text,omitempty" json:"text,omitempty"`
	MediaURLs []string             `bson:"media_urls,omitempty" json:"media_urls,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	Deleted   bool                 `bson:"deleted" json:"-"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

// LikedBy reports whether id is on the like set.
func (p *Post) LikedBy(id primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == id {
			return true
		}
	}
	return false
}
