package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/tix-bff/internal/repository"
	"github.com/kirinyoku/tix-bff/internal/session"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps one serialized session.State per browsing session.
// Every save refreshes the TTL, so idle sessions age out.
type SessionStore struct {
	rdb   *redis.Client
	cache *Cache
	ttl   time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionStore{rdb: rdb, cache: New(rdb), ttl: ttl}
}

// Load returns repository.ErrNotFound for unknown or expired sessions.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.State, error) {
	const op = "redis.SessionStore.Load"

	st, ok, err := GetJSON[session.State](ctx, s.cache, KeySession(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return &st, nil
}

// Save writes st if the stored copy still has st.Version and bumps the
// version on success. It returns repository.ErrConflict when another request
// saved the session first. A missing key is written as is.
func (s *SessionStore) Save(ctx context.Context, st *session.State) error {
	const op = "redis.SessionStore.Save"

	key := KeySession(st.ID)

	next := *st
	next.Version++
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var stored struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(cur, &stored); err != nil {
				return err
			}
			if stored.Version != st.Version {
				return repository.ErrConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		err = repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	st.Version = next.Version

	return nil
}
