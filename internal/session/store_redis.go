// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/portal/internal/platform/constants"
)

// RedisStore implements [Store] on top of go-redis.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store whose records expire after ttl.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: constants.RedisPrefixSession,
		ttl:    ttl,
	}
}

func (store *RedisStore) key(id string) string {
	return store.prefix + id
}

/*
Get loads and decodes the record stored under id.

Returns:
  - *Record: Decoded record
  - error: ErrNotFound or connectivity errors
*/
func (store *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	payload, err := store.client.Get(ctx, store.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}

	return record, nil
}

/*
Save encodes the record and stores it with the configured TTL.

Returns:
  - error: Encoding or connectivity errors
*/
func (store *RedisStore) Save(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("redis_session_save_failed: empty session id")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, store.key(record.ID), payload, store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_save_failed: %w", err)
	}

	return nil
}

/*
Destroy deletes the record stored under id.

Returns:
  - error: Connectivity errors
*/
func (store *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := store.client.Del(ctx, store.key(id)).Err(); err != nil {
		return fmt.Errorf("redis_session_destroy_failed: %w", err)
	}
	return nil
}
