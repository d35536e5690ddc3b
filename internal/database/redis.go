package database

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a Redis client and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// CodeStore is the short-lived key/value surface the auth service uses for
// OTP codes, pending registrations and refresh-token hashes. Backed by Redis
// in production, faked in tests.
type CodeStore struct {
	rdb *redis.Client
}

func NewCodeStore(rdb *redis.Client) *CodeStore {
	return &CodeStore{rdb: rdb}
}

// Set stores val under key with a TTL. A second Set on the same key
// overwrites the previous value, so the newest code always wins.
func (s *CodeStore) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

// Get returns the stored value, or "" with no error when the key is missing
// or expired.
func (s *CodeStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *CodeStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Incr increments a counter key, setting the window TTL on first use.
func (s *CodeStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = s.rdb.Expire(ctx, key, window).Err()
	}
	return n, nil
}
