package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"palm-rag/internal/config"
	"palm-rag/pkg/circuitbreaker"
	"palm-rag/pkg/httpmiddleware"
	"palm-rag/pkg/ratelimiter"
)

// Middleware defines a function to wrap an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server wraps http.Server and applies the configured middleware chain around
// the application handler.
type Server struct {
	httpServer *http.Server
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer creates a Server serving handler. Per-client rate limiting and the
// request timeout are applied when configured.
func NewServer(cfg *config.AppConfig, handler http.Handler, opts ...ServerOption) (*Server, error) {
	var middlewares []Middleware

	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := createRateLimiter(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		log.Printf("Enabling Rate Limiter middleware with algorithm: %s", cfg.Middleware.RateLimiter.Algorithm)
		middlewares = append(middlewares, httpmiddleware.RateLimit(limiter))
	}

	if cfg.Server.RequestTimeout != "" {
		timeout, err := time.ParseDuration(cfg.Server.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request timeout: %w", err)
		}
		middlewares = append(middlewares, httpmiddleware.Timeout(timeout))
	}

	// Apply all middlewares in reverse order so the first one runs first.
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	srv := &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = cfg.Server.Address()
	}
	return srv, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	if s.httpServer.Addr == "" {
		return fmt.Errorf("server address is not set")
	}
	log.Printf("Starting server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// createRateLimiter builds the per-client limiter for the configured algorithm.
func createRateLimiter(cfg config.RateLimiterConfig) (*ratelimiter.Keyed, error) {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "tokenBucket"
	}

	var factory func() ratelimiter.RateLimiter
	idle := time.Duration(0)
	switch algorithm {
	case "tokenBucket":
		conf := cfg.TokenBucket
		factory = func() ratelimiter.RateLimiter { return ratelimiter.NewTokenBucket(conf.Rate, conf.Capacity) }
		if conf.Rate > 0 {
			// a bucket idle this long has refilled completely
			idle = time.Duration(float64(conf.Capacity)/conf.Rate*float64(time.Second)) + time.Second
		}
	case "fixedWindow":
		conf := cfg.FixedWindow
		window, err := time.ParseDuration(conf.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid fixedWindow duration: %w", err)
		}
		factory = func() ratelimiter.RateLimiter { return ratelimiter.NewFixedWindowCounter(conf.Limit, window) }
		idle = window
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
	return ratelimiter.NewKeyed(cfg.MaxClients, idle, factory)
}

// createCircuitBreaker initializes a named circuit breaker based on the configuration.
func createCircuitBreaker(name string, cfg config.CircuitBreakerConfig) (*circuitbreaker.Breaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.New(circuitbreaker.Settings{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          timeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}), nil
}
