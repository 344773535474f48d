// Package redis stores transfer idempotency keys in Redis so that retries
// are recognized across API instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bankdash/internal/domain/transfer"
)

const pendingMarker = "pending"

// releaseScript deletes a key only while it still holds the pending marker,
// so a late Release can never drop a completed result.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore implements transfer.IdempotencyStore.
type IdempotencyStore struct {
	client goredis.UniversalClient
}

// NewIdempotencyStore wraps an existing client.
func NewIdempotencyStore(client goredis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (*transfer.Result, bool, error) {
	// A key can expire between SETNX and GET; one retry covers that.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, key, pendingMarker, ttl).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to reserve key: %w", err)
		}
		if ok {
			return nil, true, nil
		}

		val, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read key: %w", err)
		}
		if val == pendingMarker {
			return nil, false, nil
		}

		var result transfer.Result
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			return nil, false, fmt.Errorf("failed to decode stored result: %w", err)
		}
		return &result, false, nil
	}
	return nil, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, result transfer.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("failed to release key: %w", err)
	}
	return nil
}
