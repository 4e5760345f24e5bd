package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotKeyPrefix namespaces session keys in a shared Redis.
const snapshotKeyPrefix = "unmask:session:"

// RedisSnapshotStore stores session snapshots in Redis, one key per
// session. A non-zero TTL lets abandoned sessions expire.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a snapshot store over a Redis client.
// ttl of zero means snapshots never expire.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (s *RedisSnapshotStore) key(sessionID string) string {
	return snapshotKeyPrefix + sessionID
}

func (s *RedisSnapshotStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return raw, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, sessionID string, snapshot []byte) error {
	if err := s.client.Set(ctx, s.key(sessionID), snapshot, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
