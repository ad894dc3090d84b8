package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock, transitions *[]string) *Breaker {
	return New(Settings{
		Name:             "qdrant",
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		OnStateChange: func(name string, from, to State) {
			*transitions = append(*transitions, name+":"+from.String()+"->"+to.String())
		},
		now: clock.now,
	})
}

func TestBreakerTripsAndRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	b := newTestBreaker(clock, &transitions)
	boom := errors.New("boom")

	assert.Equal(t, boom, b.Execute(func() error { return boom }))
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, boom, b.Execute(func() error { return boom }))
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock.t = clock.t.Add(11 * time.Second)
	assert.Equal(t, HalfOpen, b.State())
	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, HalfOpen, b.State())
	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, Closed, b.State())

	assert.Equal(t, []string{
		"qdrant:closed->open",
		"qdrant:open->half-open",
		"qdrant:half-open->closed",
	}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	b := newTestBreaker(clock, &transitions)
	boom := errors.New("boom")

	_ = b.Execute(func() error { return boom })
	_ = b.Execute(func() error { return boom })
	clock.t = clock.t.Add(10 * time.Second)

	assert.Equal(t, boom, b.Execute(func() error { return boom }))
	assert.Equal(t, Open, b.State())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New(Settings{FailureThreshold: 2})
	boom := errors.New("boom")

	_ = b.Execute(func() error { return boom })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return boom })
	assert.Equal(t, Closed, b.State())
}
