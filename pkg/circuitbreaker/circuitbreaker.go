package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed lets every call through and counts consecutive failures.
	Closed State = iota
	// Open rejects calls until the cool-down elapses.
	Open
	// HalfOpen lets trial calls through; one failure re-opens the circuit.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configures a Breaker.
type Settings struct {
	// Name identifies the protected dependency in state change callbacks.
	Name string
	// FailureThreshold is the number of consecutive failures that trips the circuit.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes that closes it again.
	SuccessThreshold uint32
	// Timeout is how long the circuit stays open before allowing a trial call.
	Timeout time.Duration
	// OnStateChange, when set, is called after every transition with the lock released.
	OnStateChange func(name string, from, to State)

	now func() time.Time
}

// Breaker guards calls to one dependency. It is safe for concurrent use.
type Breaker struct {
	settings Settings

	mu                   sync.Mutex
	state                State
	consecutiveFailures  uint32
	consecutiveSuccesses uint32
	openedAt             time.Time
}

// New creates a Breaker. Zero thresholds default to 1 and a zero timeout to 30s.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return &Breaker{settings: s, state: Closed}
}

// Name returns the configured name.
func (b *Breaker) Name() string { return b.settings.Name }

// State returns the current state, promoting Open to HalfOpen once the timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.promote()
	st := b.state
	b.mu.Unlock()
	b.notify(from, to)
	return st
}

// Execute runs fn unless the circuit is open. A non-nil error from fn counts as a failure.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	from, to := b.promote()
	if b.state == Open {
		b.mu.Unlock()
		b.notify(from, to)
		return ErrCircuitOpen
	}
	b.mu.Unlock()
	b.notify(from, to)

	err := fn()

	b.mu.Lock()
	if err != nil {
		from, to = b.onFailure()
	} else {
		from, to = b.onSuccess()
	}
	b.mu.Unlock()
	b.notify(from, to)
	return err
}

// promote moves Open to HalfOpen after the timeout. Caller holds mu.
func (b *Breaker) promote() (State, State) {
	if b.state == Open && b.settings.now().Sub(b.openedAt) >= b.settings.Timeout {
		return b.setState(HalfOpen)
	}
	return b.state, b.state
}

func (b *Breaker) onSuccess() (State, State) {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.settings.SuccessThreshold {
			return b.setState(Closed)
		}
	case Closed:
		b.consecutiveFailures = 0
	}
	return b.state, b.state
}

func (b *Breaker) onFailure() (State, State) {
	switch b.state {
	case HalfOpen:
		return b.setState(Open)
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.settings.FailureThreshold {
			return b.setState(Open)
		}
	}
	return b.state, b.state
}

// setState resets the counters for the new state. Caller holds mu.
func (b *Breaker) setState(to State) (State, State) {
	from := b.state
	b.state = to
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	if to == Open {
		b.openedAt = b.settings.now()
	}
	return from, to
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, from, to)
	}
}
