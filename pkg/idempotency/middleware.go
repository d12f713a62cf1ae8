package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key scopes a client supplied idempotency key to a route.
func (s *Store) Key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Seen records key and reports whether it had already been recorded within ttl.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Forget drops key so a request that failed downstream can be retried.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
