package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fathima-sithara/social-app/internal/apperr"
)

// Socket event names shared by the REST gateway and the ws channel.
const (
	EventReceiveMessage  = "receiveMessage"
	EventNotificationNew = "notification_new"
	EventMessageRead     = "messageRead"
)

// Emitter is the live-push surface of the real-time hub. Injected rather
// than reached for globally so services can be tested with a recording fake.
// Delivery is best-effort: EmitToUser reports whether at least one live
// connection took the event, EmitToRoom reports nothing at all.
type Emitter interface {
	EmitToRoom(roomID, event string, payload interface{})
	EmitToUser(userID, event string, payload interface{}) bool
}

// CodeStore is the expiring key/value store behind OTP codes, pending
// registrations and refresh-token hashes. Satisfied by database.CodeStore.
type CodeStore interface {
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// parseObjectID converts a path/token id into an ObjectID, mapping garbage
// input to a validation error instead of a 500.
func parseObjectID(hexID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", hexID, apperr.ErrValidation)
	}
	return oid, nil
}
