package sessionstore

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"palm-rag/internal/models"
	"palm-rag/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(role models.TurnRole, content string) models.Turn {
	return models.Turn{Role: role, Content: content, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client, time.Hour)
}

func TestRedisStoreAppendHistoryClear(t *testing.T) {
	mr, s := newRedis(t)
	ctx := t.Context()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, "s1", turn(models.RoleUser, fmt.Sprintf("m%d", i))))
	}
	assert.True(t, mr.Exists("chat_session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("chat_session:s1"))

	all, err := s.History(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	last, err := s.History(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "m3", last[0].Content)
	assert.Equal(t, "m4", last[1].Content)
	assert.Equal(t, models.RoleUser, last[1].Role)

	existed, err := s.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, existed)

	h, err := s.History(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, h)

	existed, err = s.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr, s := newRedis(t)
	require.NoError(t, s.Append(t.Context(), "s1", turn(models.RoleUser, "hi")))
	mr.FastForward(2 * time.Hour)

	h, err := s.History(t.Context(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestRedisStoreSkipsCorruptEntries(t *testing.T) {
	mr, s := newRedis(t)
	_, err := mr.Push("chat_session:s1", `{"role":"user","content":"ok"}`, "not json")
	require.NoError(t, err)

	h, err := s.History(t.Context(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "ok", h[0].Content)
}

func TestRedisStoreConcurrentAppends(t *testing.T) {
	mr, s := newRedis(t)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(t.Context(), "s", turn(models.RoleUser, fmt.Sprint(i))))
		}(i)
	}
	wg.Wait()

	h, err := s.History(t.Context(), "s", 0)
	require.NoError(t, err)
	require.Len(t, h, 100)
	seen := make(map[string]bool, len(h))
	for _, m := range h {
		seen[m.Content] = true
	}
	assert.Len(t, seen, 100)
	assert.Equal(t, time.Hour, mr.TTL("chat_session:s"))
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(2, time.Hour)
	require.NoError(t, err)
	ctx := t.Context()

	h, err := s.History(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)

	require.NoError(t, s.Append(ctx, "a", turn(models.RoleUser, "q")))
	require.NoError(t, s.Append(ctx, "a", turn(models.RoleAssistant, "r")))
	h, err = s.History(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "r", h[0].Content)

	// capacity 2: the least recently used session is evicted
	require.NoError(t, s.Append(ctx, "b", turn(models.RoleUser, "q")))
	require.NoError(t, s.Append(ctx, "c", turn(models.RoleUser, "q")))
	h, _ = s.History(ctx, "a", 0)
	assert.Empty(t, h)

	existed, _ := s.Clear(ctx, "c")
	assert.True(t, existed)
	existed, _ = s.Clear(ctx, "c")
	assert.False(t, existed)
}

func TestLocalStoreConcurrentAppends(t *testing.T) {
	s, _ := NewLocalStore(10, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(t.Context(), "s", turn(models.RoleUser, fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()

	h, err := s.History(t.Context(), "s", 0)
	require.NoError(t, err)
	assert.Len(t, h, 100)
}

func TestTieredStoreSelectsByHealth(t *testing.T) {
	mr, primary := newRedis(t)
	fallback, _ := NewLocalStore(10, time.Hour)
	tiered := NewTieredStore(primary, fallback, 500*time.Millisecond, logger.Discard())
	ctx := t.Context()

	assert.Equal(t, BackendRedis, tiered.Backend(ctx))
	require.NoError(t, tiered.Append(ctx, "s1", turn(models.RoleUser, "in redis")))
	assert.True(t, mr.Exists("chat_session:s1"))

	mr.Close()
	assert.Equal(t, BackendLocal, tiered.Backend(ctx))
	assert.Same(t, fallback, tiered.Select(ctx))

	require.NoError(t, tiered.Append(ctx, "s1", turn(models.RoleUser, "in memory")))
	h, err := tiered.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "in memory", h[0].Content)

	require.NoError(t, mr.Restart())
	assert.Equal(t, BackendRedis, tiered.Backend(ctx))
	h, err = tiered.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "in redis", h[0].Content)
}

func TestTieredStoreWithoutRedis(t *testing.T) {
	fallback, _ := NewLocalStore(10, time.Hour)
	tiered := NewTieredStore(nil, fallback, 0, logger.Discard())
	assert.Equal(t, BackendLocal, tiered.Backend(t.Context()))

	require.NoError(t, tiered.Append(t.Context(), "s", turn(models.RoleUser, "x")))
	existed, err := tiered.Clear(t.Context(), "s")
	require.NoError(t, err)
	assert.True(t, existed)
}
