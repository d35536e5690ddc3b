package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 60 * time.Second

// PresenceStore tracks which users currently hold a live socket connection.
// Keys expire on their own, so a crashed process never leaves anyone online
// forever.
type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func (p *PresenceStore) SetOnline(ctx context.Context, userID string) {
	_ = p.rdb.Set(ctx, "presence:"+userID, "online", presenceTTL).Err()
}

func (p *PresenceStore) SetOffline(ctx context.Context, userID string) {
	_ = p.rdb.Del(ctx, "presence:"+userID).Err()
}

func (p *PresenceStore) IsOnline(ctx context.Context, userID string) bool {
	val, err := p.rdb.Get(ctx, "presence:"+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return false
		}
		return false
	}
	return val == "online"
}
