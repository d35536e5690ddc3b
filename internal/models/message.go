package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeFile  = "file"
	MediaTypeText  = "text"
)

// MediaRef points at an uploaded blob.
type MediaRef struct {
	URL  string `bson:"url" json:"url"`
	Type string `bson:"type" json:"type"`
}

// Message belongs to exactly one conversation. A message carries text, media
// or both; read_by starts with the sender and only ever grows. Deletion is a
// soft flag, the document stays.
type Message struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID   `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	Text           string               `bson:"text,omitempty" json:"text,omitempty"`
	Media          *MediaRef            `bson:"media,omitempty" json:"media,omitempty"`
	ReadBy         []primitive.ObjectID `bson:"read_by" json:"read_by"`
	Deleted        bool                 `bson:"deleted" json:"-"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
}

// MessageView is the populated form sent over REST and the socket channel,
// with the sender's profile fields inlined.
type MessageView struct {
	Message `bson:",inline"`
	Sender  UserSummary `bson:"sender" json:"sender"`
}

// ReadByUser reports whether id is on the read set.
func (m *Message) ReadByUser(id primitive.ObjectID) bool {
	for _, r := range m.ReadBy {
		if r == id {
			return true
		}
	}
	return false
}
