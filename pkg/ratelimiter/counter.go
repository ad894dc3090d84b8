package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter allows at most limit requests per fixed window.
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
	mutex       sync.Mutex
}

// NewFixedWindowCounter creates a new FixedWindowCounter.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return newFixedWindowCounter(limit, window, time.Now)
}

func newFixedWindowCounter(limit int, window time.Duration, now func() time.Time) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: now(),
		now:         now,
	}
}

// Allow resets the counter once the current window has passed and counts the request
// if the limit has not been reached.
func (fwc *FixedWindowCounter) Allow() bool {
	fwc.mutex.Lock()
	defer fwc.mutex.Unlock()

	now := fwc.now()
	if !now.Before(fwc.windowStart.Add(fwc.window)) {
		fwc.windowStart = now
		fwc.count = 0
	}

	if fwc.count < fwc.limit {
		fwc.count++
		return true
	}
	return false
}
