package service

import (
	"context"
	"time"

	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/storages/sessionstore"
)

// Component states reported by HealthService.
const (
	StateOK          = "ok"
	StateDegraded    = "degraded"
	StateUnavailable = "unavailable"
)

// Pinger is anything with a health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// SessionBackend reports the session tier that would serve a request.
type SessionBackend interface {
	Backend(ctx context.Context) string
}

// Health is the state of every dependency.
type Health struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthService probes the dependencies of the service.
type HealthService struct {
	database    Pinger
	sessions    SessionBackend
	vectorStore interfaces.VectorStore
	timeout     time.Duration
}

// NewHealthService creates a HealthService.
func NewHealthService(database Pinger, sessions SessionBackend, vectorStore interfaces.VectorStore, timeout time.Duration) *HealthService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthService{database: database, sessions: sessions, vectorStore: vectorStore, timeout: timeout}
}

// Check probes every component. The overall status is ok only when all
// components are ok; a session store running on the local fallback counts as
// degraded.
func (s *HealthService) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	h := Health{Status: StateOK, Components: map[string]string{}}
	set := func(name, state string) {
		h.Components[name] = state
		if state != StateOK {
			h.Status = StateDegraded
		}
	}
	probe := func(p Pinger) string {
		if err := p.Ping(ctx); err != nil {
			return StateUnavailable
		}
		return StateOK
	}

	set("database", probe(s.database))
	set("vector_store", probe(s.vectorStore))
	if s.sessions.Backend(ctx) == sessionstore.BackendRedis {
		set("redis", StateOK)
	} else {
		set("redis", StateDegraded)
	}
	return h
}
