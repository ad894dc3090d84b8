// Package sessionstore keeps chat history in Redis, with an in-process LRU used
// whenever Redis cannot be reached.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/interfaces"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix is prepended to the session id to form the Redis key.
const KeyPrefix = "chat_session:"

// DefaultTTL is the lifetime of an idle session.
const DefaultTTL = 24 * time.Hour

// RedisStore stores each session as a Redis list of JSON encoded turns. Every
// append refreshes the expiry of the whole session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl selects DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(sessionID string) string { return KeyPrefix + sessionID }

// Append pushes one turn and resets the expiry in a single transaction.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key(sessionID), data)
	pipe.Expire(ctx, key(sessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append %s: %v: %w", sessionID, err, apperr.ErrStoreUnavailable)
	}
	return nil
}

// History returns the last limit turns, oldest first. Entries that cannot be
// decoded are skipped.
func (s *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, key(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history %s: %v: %w", sessionID, err, apperr.ErrStoreUnavailable)
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, r := range raw {
		var t models.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear deletes the session.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis clear %s: %v: %w", sessionID, err, apperr.ErrStoreUnavailable)
	}
	return n > 0, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %v: %w", err, apperr.ErrStoreUnavailable)
	}
	return nil
}

var _ interfaces.SessionStore = (*RedisStore)(nil)
