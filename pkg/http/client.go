package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"palm-rag/internal/config"
	"palm-rag/pkg/circuitbreaker"
)

// ErrServerStatus marks responses with a 5xx status. The response is still returned
// to the caller so that it can read the body.
var ErrServerStatus = errors.New("server error status")

// Client wraps http.Client and routes every request through a circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

// NewClient creates a Client. With the breaker disabled requests go straight to the
// underlying http.Client.
func NewClient(name string, cfg config.CircuitBreakerConfig, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{httpClient: &http.Client{Timeout: timeout}}
	if !cfg.Enabled {
		return c, nil
	}

	breaker, err := createCircuitBreaker(name, cfg)
	if err != nil {
		return nil, err
	}
	c.breaker = breaker
	return c, nil
}

// Breaker returns the client's circuit breaker, nil when disabled.
func (c *Client) Breaker() *circuitbreaker.Breaker {
	return c.breaker
}

// Do executes an HTTP request with circuit breaker protection. Transport errors and
// status codes >= 500 count as failures. On a 5xx the response is returned together
// with an error wrapping ErrServerStatus; the caller must close its body.
// When the circuit is open circuitbreaker.ErrCircuitOpen is returned.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%w: %d", ErrServerStatus, resp.StatusCode)
		}
		return resp, nil
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %d", ErrServerStatus, resp.StatusCode)
		}
		return nil
	})
	return resp, err
}
