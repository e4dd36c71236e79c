package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saradorri/tournamentledger/internal/domain"
)

const inFlight = "in-flight"

// RedisStore keeps idempotency keys in redis with a TTL
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect opens a redis client. An empty address returns nil.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}

// NewRedisStore creates a store over rdb
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key namespaces a client supplied key
func Key(key string) string {
	return fmt.Sprintf("idem:%s", key)
}

// Reserve implements domain.IdempotencyStore
func (s *RedisStore) Reserve(ctx context.Context, key string) (int64, bool, error) {
	claimed, err := s.rdb.SetNX(ctx, Key(key), inFlight, s.ttl).Result()
	if err != nil {
		return 0, false, err
	}
	if claimed {
		return 0, true, nil
	}

	val, err := s.rdb.Get(ctx, Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls; let the caller retry
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if val == inFlight {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency record for %s: %w", key, err)
	}
	return id, true, nil
}

// Complete records the transaction created for key
func (s *RedisStore) Complete(ctx context.Context, key string, transactionID int64) error {
	return s.rdb.Set(ctx, Key(key), strconv.FormatInt(transactionID, 10), s.ttl).Err()
}

// Release frees a key whose request failed so the client may retry
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, Key(key)).Err()
}

// NoopStore accepts every key. It is used when redis is not configured.
type NoopStore struct{}

// Reserve always grants the key
func (NoopStore) Reserve(context.Context, string) (int64, bool, error) { return 0, true, nil }

// Complete does nothing
func (NoopStore) Complete(context.Context, string, int64) error { return nil }

// Release does nothing
func (NoopStore) Release(context.Context, string) error { return nil }

var (
	_ domain.IdempotencyStore = (*RedisStore)(nil)
	_ domain.IdempotencyStore = NoopStore{}
)
