// Package qdrant is a minimal REST client for the Qdrant vector database.
// Collections use cosine distance and are created on first write.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"palm-rag/internal/apperr"
	xhttp "palm-rag/pkg/http"
)

// Doer is satisfied by *xhttp.Client and *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Point is one vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Client talks to one collection.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	http       Doer

	mu      sync.Mutex
	ensured bool
}

// Config holds the connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
}

// New creates a Client. The collection is not touched until the first write.
func New(cfg Config, doer Doer) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is empty: %w", apperr.ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is empty: %w", apperr.ErrInvalidConfig)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant vector size %d: %w", cfg.Dimension, apperr.ErrInvalidConfig)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		http:       doer,
	}, nil
}

// Collection returns the collection name.
func (c *Client) Collection() string { return c.collection }

// Ping checks that the server is reachable and the api key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/collections", nil, nil)
	return err
}

// EnsureCollection creates the collection if it does not exist yet. An existing
// collection with a different vector size is reported as ErrInvalidConfig.
func (c *Client) EnsureCollection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ensured {
		return nil
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := c.do(ctx, http.MethodGet, c.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != c.dimension {
			return fmt.Errorf("collection %s has vector size %d, embeddings have %d: %w",
				c.collection, size, c.dimension, apperr.ErrInvalidConfig)
		}
	case status == http.StatusNotFound:
		body := map[string]any{
			"vectors": map[string]any{"size": c.dimension, "distance": "Cosine"},
		}
		if _, err := c.do(ctx, http.MethodPut, c.collectionPath(""), body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", c.collection, err)
		}
	default:
		return err
	}

	c.ensured = true
	return nil
}

// Upsert writes points, replacing existing points with the same id.
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != c.dimension {
			return fmt.Errorf("point %s has %d dimensions, collection expects %d: %w",
				p.ID, len(p.Vector), c.dimension, apperr.ErrInvalidConfig)
		}
	}
	_, err := c.do(ctx, http.MethodPut, c.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

// Search returns up to limit points ordered by descending score. A missing
// collection yields no hits.
func (c *Client) Search(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]ScoredPoint, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := matchFilter(filter); f != nil {
		body["filter"] = f
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost, c.collectionPath("/points/search"), body, &resp)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, ScoredPoint{ID: fmt.Sprint(r.ID), Score: r.Score, Payload: r.Payload})
	}
	return out, nil
}

// DeleteByFilter removes every point whose payload matches all key/value pairs.
func (c *Client) DeleteByFilter(ctx context.Context, filter map[string]string) error {
	f := matchFilter(filter)
	if f == nil {
		return fmt.Errorf("refusing to delete without a filter: %w", apperr.ErrValidation)
	}
	status, err := c.do(ctx, http.MethodPost, c.collectionPath("/points/delete?wait=true"), map[string]any{"filter": f}, nil)
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.collection) + suffix
}

func matchFilter(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	must := make([]map[string]any, 0, len(filter))
	for k, v := range filter {
		must = append(must, map[string]any{"key": k, "match": map[string]any{"value": v}})
	}
	return map[string]any{"must": must}
}

// do sends a JSON request and decodes the JSON response into out. The returned
// status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode qdrant request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil && !errors.Is(err, xhttp.ErrServerStatus) {
		// transport failure or open breaker
		return 0, fmt.Errorf("qdrant %s %s: %w: %w", method, path, apperr.ErrStoreUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("qdrant %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
			resp.StatusCode >= http.StatusInternalServerError:
			err = fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
		case resp.StatusCode == http.StatusNotFound:
			err = fmt.Errorf("%w: %w", apperr.ErrNotFound, err)
		}
		return resp.StatusCode, err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
