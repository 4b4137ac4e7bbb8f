package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces idempotency records in Redis.
const RedisKeyPrefix = "cropadvisor:idempotency:"

// RedisStore keeps records in Redis with a TTL, so expiry needs no sweeper.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl uses DefaultExpiry.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultExpiry
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get loads and decodes a record.
func (s *RedisStore) Get(ctx context.Context, storageKey string) (*Record, error) {
	data, err := s.client.Get(ctx, RedisKeyPrefix+storageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, nil
}

// Put stores rec with SET NX so concurrent first requests cannot both win.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateKey(rec.Key); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, RedisKeyPrefix+StorageKey(rec.Route, rec.Key), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return ErrKeyExists
	}
	return nil
}

// DeleteOlderThan is a no-op: Redis expires records on its own.
func (s *RedisStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}
