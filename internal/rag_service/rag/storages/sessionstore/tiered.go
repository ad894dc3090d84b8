package sessionstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/pkg/logger"
)

// DefaultPingTimeout bounds the health check done before every selection.
const DefaultPingTimeout = 200 * time.Millisecond

// Backend names reported by TieredStore.Backend.
const (
	BackendRedis = "redis"
	BackendLocal = "local"
)

// TieredStore chooses between Redis and the local fallback with a health check
// at call time. The two tiers are never reconciled.
type TieredStore struct {
	primary     *RedisStore
	fallback    *LocalStore
	pingTimeout time.Duration
	log         *logger.Logger

	degraded atomic.Bool
}

// NewTieredStore creates a TieredStore. primary may be nil, in which case the
// fallback is always used.
func NewTieredStore(primary *RedisStore, fallback *LocalStore, pingTimeout time.Duration, log *logger.Logger) *TieredStore {
	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}
	return &TieredStore{primary: primary, fallback: fallback, pingTimeout: pingTimeout, log: log}
}

// Select returns the backend to use for one request.
func (t *TieredStore) Select(ctx context.Context) interfaces.SessionStore {
	store, _ := t.selectBackend(ctx)
	return store
}

// Backend reports which tier would be selected right now.
func (t *TieredStore) Backend(ctx context.Context) string {
	_, name := t.selectBackend(ctx)
	return name
}

func (t *TieredStore) selectBackend(ctx context.Context) (interfaces.SessionStore, string) {
	if t.primary == nil {
		return t.fallback, BackendLocal
	}

	pingCtx, cancel := context.WithTimeout(ctx, t.pingTimeout)
	defer cancel()
	if err := t.primary.Ping(pingCtx); err != nil {
		// log transitions only
		if !t.degraded.Swap(true) {
			t.log.WithPayload(map[string]interface{}{"error": err.Error()}).
				Warn("redis unavailable, falling back to in-memory session store")
		}
		return t.fallback, BackendLocal
	}
	if t.degraded.Swap(false) {
		t.log.Info("redis reachable again, using redis session store")
	}
	return t.primary, BackendRedis
}

// Append selects a backend and appends to it.
func (t *TieredStore) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	return t.Select(ctx).Append(ctx, sessionID, turn)
}

// History selects a backend and reads from it.
func (t *TieredStore) History(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	return t.Select(ctx).History(ctx, sessionID, limit)
}

// Clear selects a backend and clears the session there.
func (t *TieredStore) Clear(ctx context.Context, sessionID string) (bool, error) {
	return t.Select(ctx).Clear(ctx, sessionID)
}

// String describes the configured tiers.
func (t *TieredStore) String() string {
	if t.primary == nil {
		return fmt.Sprintf("sessionstore(%s)", BackendLocal)
	}
	return fmt.Sprintf("sessionstore(%s, fallback %s)", BackendRedis, BackendLocal)
}

var (
	_ interfaces.SessionStore    = (*TieredStore)(nil)
	_ interfaces.SessionSelector = (*TieredStore)(nil)
)
