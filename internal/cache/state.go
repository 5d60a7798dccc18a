package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore хранит одноразовые state-значения OAuth.
type StateStore interface {
	// Save запоминает state на ttl.
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume атомарно удаляет state и сообщает, существовал ли он.
	Consume(ctx context.Context, state string) (bool, error)
}

type redisStateStore struct {
	rdb    *redis.Client
	prefix string
}

// NewStateStore возвращает StateStore поверх Redis.
// Ключи имеют вид <prefix>oauth:state:<state>.
func NewStateStore(rdb *redis.Client, prefix string) StateStore {
	return &redisStateStore{rdb: rdb, prefix: prefix + "oauth:state:"}
}

func (s *redisStateStore) key(state string) string { return s.prefix + state }

func (s *redisStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	const op = "cache.StateStore.Save"

	if err := s.rdb.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	const op = "cache.StateStore.Consume"

	if state == "" {
		return false, nil
	}

	// GETDEL гарантирует однократное использование.
	if err := s.rdb.GetDel(ctx, s.key(state)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
