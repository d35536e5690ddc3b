package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMessage = "message"
	NotificationSystem  = "system"
)

// Notification is the durable record of a social event. The live socket push
// is best-effort; a receiver who was offline still sees the row on the next
// list fetch. delivered only tracks whether a live push reached a connection.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	Message   string             `bson:"message" json:"message"`
	EntityID  primitive.ObjectID `bson:"entity_id,omitempty" json:"entity_id,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	Delivered bool               `bson:"delivered" json:"delivered"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
