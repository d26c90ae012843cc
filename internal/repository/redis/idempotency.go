package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemNS       = ns + ":idem"
	lockValue    = "LOCK"
	resultPrefix = "RES:"
)

func KeyIdemBooking(sessionID, idemKey string) string {
	return fmt.Sprintf("%s:bookings:%s:%s", idemNS, sessionID, idemKey)
}

// IdempotencyStore holds short-lived locks and replayable results. The
// booking endpoint uses it twice: as the per-session in-flight guard and to
// replay a response for a repeated Idempotency-Key.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// AcquireLock reports false when someone else already holds key.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
}

// SaveResult replaces the lock on key with a payload kept for the store TTL.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}

	payload, found := strings.CutPrefix(v, resultPrefix)
	return payload, found, nil
}

func (s *IdempotencyStore) IsLocked(ctx context.Context, key string) (bool, error) {
	v, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	return v == lockValue, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *IdempotencyStore) get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return v, true, nil
}
