package sessionstore

import (
	"context"
	"fmt"
	"time"

	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/pkg/util"
)

// DefaultLocalSessions bounds the number of sessions kept in process memory.
const DefaultLocalSessions = 10000

// LocalStore keeps sessions in an LRU cache. Least recently used sessions are
// evicted first and idle sessions expire after the ttl.
type LocalStore struct {
	cache *util.LRUCache[string, []models.Turn]
}

// NewLocalStore creates a LocalStore holding at most capacity sessions.
func NewLocalStore(capacity int, ttl time.Duration) (*LocalStore, error) {
	if capacity <= 0 {
		capacity = DefaultLocalSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := util.NewLRU[string, []models.Turn](util.CacheConfig{Capacity: capacity, TTL: ttl})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &LocalStore{cache: cache}, nil
}

// Append adds one turn. The slice is copied so that readers never observe a
// partially appended history.
func (s *LocalStore) Append(_ context.Context, sessionID string, turn models.Turn) error {
	s.cache.Update(sessionID, func(old []models.Turn, _ bool) ([]models.Turn, int) {
		next := make([]models.Turn, len(old), len(old)+1)
		copy(next, old)
		return append(next, turn), 1
	})
	return nil
}

// History returns the last limit turns, oldest first.
func (s *LocalStore) History(_ context.Context, sessionID string, limit int) ([]models.Turn, error) {
	turns, ok := s.cache.Get(sessionID)
	if !ok {
		return []models.Turn{}, nil
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]models.Turn(nil), turns...), nil
}

// Clear deletes the session.
func (s *LocalStore) Clear(_ context.Context, sessionID string) (bool, error) {
	return s.cache.Delete(sessionID), nil
}

// Len returns the number of sessions held.
func (s *LocalStore) Len() int { return s.cache.Len() }

var _ interfaces.SessionStore = (*LocalStore)(nil)
