package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation groups two or more participants around a message thread. The
// last message is denormalized onto the document so conversation lists render
// without a second query; it may go stale if the pointer update fails and is
// corrected by the next send.
type Conversation struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	IsGroup      bool                 `bson:"is_group" json:"is_group"`
	Name         string               `bson:"name,omitempty" json:"name,omitempty"`
	LastMessage  *Message             `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether id belongs to the conversation.
func (c *Conversation) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Counterpart returns the other participant of a direct conversation.
func (c *Conversation) Counterpart(id primitive.ObjectID) (primitive.ObjectID, bool) {
	if c.IsGroup || len(c.Participants) != 2 {
		return primitive.NilObjectID, false
	}
	for _, p := range c.Participants {
		if p != id {
			return p, true
		}
	}
	return primitive.NilObjectID, false
}
