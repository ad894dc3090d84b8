package ratelimiter

import (
	"fmt"
	"time"

	"palm-rag/pkg/util"
)

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// Keyed keeps one limiter per key (typically a client IP) in an LRU so that
// the number of tracked clients stays bounded.
type Keyed struct {
	limiters *util.LRUCache[string, RateLimiter]
	factory  func() RateLimiter
}

// NewKeyed creates a Keyed limiter tracking at most maxKeys clients. Idle clients
// are forgotten after idleTTL; a zero idleTTL keeps them until evicted by capacity.
func NewKeyed(maxKeys int, idleTTL time.Duration, factory func() RateLimiter) (*Keyed, error) {
	if factory == nil {
		return nil, fmt.Errorf("rate limiter factory is required")
	}
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	cache, err := util.NewLRU[string, RateLimiter](util.CacheConfig{Capacity: maxKeys, TTL: idleTTL})
	if err != nil {
		return nil, err
	}
	return &Keyed{limiters: cache, factory: factory}, nil
}

// Allow reports whether the client identified by key may proceed.
func (k *Keyed) Allow(key string) bool {
	return k.limiters.GetOrCreate(key, k.factory).Allow()
}

// Tracked returns the number of clients currently tracked.
func (k *Keyed) Tracked() int {
	return k.limiters.Len()
}
