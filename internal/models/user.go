package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account document. Social edges are stored as ObjectID arrays on
// both sides: if A follows B then A.followed contains B and B.followers
// contains A. blocked_users is one-sided; visibility checks look at both users.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	Phone        string               `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Role         string               `bson:"role" json:"role"`
	IsActive     bool                 `bson:"is_active" json:"is_active"`
	IsVerified   bool                 `bson:"is_verified" json:"is_verified"`
	Bio          string               `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL    string               `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Followed     []primitive.ObjectID `bson:"followed" json:"followed"`
	Followers    []primitive.ObjectID `bson:"followers" json:"followers"`
	BlockedUsers []primitive.ObjectID `bson:"blocked_users" json:"-"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection inlined into messages, posts and
// conversation lists.
type UserSummary struct {
	ID        primitive.ObjectID `bson:"id" json:"id"`
	Username  string             `bson:"username" json:"username"`
	AvatarURL string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

// HasBlocked reports whether this user has id on their block list.
func (u *User) HasBlocked(id primitive.ObjectID) bool {
	for _, b := range u.BlockedUsers {
		if b == id {
			return true
		}
	}
	return false
}

// IsFollowing reports whether this user follows id.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Followed {
		if f == id {
			return true
		}
	}
	return false
}
