package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	tb := newTokenBucket(1, 2, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(time.Second)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 长时间空闲后不会超过容量
	now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestFixedWindowCounter(t *testing.T) {
	now := time.Unix(0, 0)
	fw := newFixedWindowCounter(2, time.Minute, func() time.Time { return now })

	assert.True(t, fw.Allow())
	assert.True(t, fw.Allow())
	assert.False(t, fw.Allow())

	now = now.Add(time.Minute)
	assert.True(t, fw.Allow())
}

func TestKeyedLimitsPerClient(t *testing.T) {
	k, err := NewKeyed(10, 0, func() RateLimiter { return NewFixedWindowCounter(1, time.Hour) })
	require.NoError(t, err)

	assert.True(t, k.Allow("10.0.0.1"))
	assert.False(t, k.Allow("10.0.0.1"))
	assert.True(t, k.Allow("10.0.0.2"))
	assert.Equal(t, 2, k.Tracked())
}

func TestKeyedBoundsTrackedClients(t *testing.T) {
	k, err := NewKeyed(2, 0, func() RateLimiter { return NewFixedWindowCounter(1, time.Hour) })
	require.NoError(t, err)

	k.Allow("a")
	k.Allow("b")
	k.Allow("c")
	assert.Equal(t, 2, k.Tracked())
	// "a" 被淘汰后重新获得额度
	assert.True(t, k.Allow("a"))
}

func TestNewKeyedRequiresFactory(t *testing.T) {
	_, err := NewKeyed(1, 0, nil)
	assert.Error(t, err)
}
