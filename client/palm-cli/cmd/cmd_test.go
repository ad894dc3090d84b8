package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestChatCommand(t *testing.T) {
	var (
		mu  sync.Mutex
		got map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"session_id":"s-1","answer":"Twenty days.","chunk_ids":["c"],"sources":["doc-1"],"degraded":true}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "chat", "--session", "s-1", "how", "many", "days?")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "how many days?", got["query"])
	assert.Equal(t, "s-1", got["session_id"])
	assert.Contains(t, out, "Twenty days.")
	assert.Contains(t, out, "sources: doc-1")
	assert.Contains(t, out, "degraded")
}

func TestIngestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Some notes."), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		fh := r.MultipartForm.File["file"]
		if assert.Len(t, fh, 1) {
			assert.Equal(t, "notes.txt", fh[0].Filename)
		}
		assert.Equal(t, "semantic", r.FormValue("chunking_strategy"))
		assert.Equal(t, "300", r.FormValue("chunk_size"))
		assert.Empty(t, r.FormValue("chunk_overlap"))
		_, _ = w.Write([]byte(`{"document_id":"d-1","chunks":3,"status":"success"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "ingest", path, "--strategy", "semantic", "--chunk-size", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "d-1 (3 chunks, success)")
}

func TestAPIErrorsAreReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"qdrant down","code":"store_unavailable","failed_chunks":[0,2]}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "history", "s-9")
	require.Error(t, err)
	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "store_unavailable", apiErr.Code)
	assert.Equal(t, []int{0, 2}, apiErr.FailedChunks)
}

func TestBookingsCommands(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()
		switch {
		case r.Method == http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "ada@example.com", body["email"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"booking_id":"b-1","status":"confirmed"}`))
		case r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"status":"success","message":"Booking b-1 deleted"}`))
		default:
			_, _ = w.Write([]byte(`{"bookings":[],"count":0}`))
		}
	}))
	defer srv.Close()

	out, err := run(t, srv, "bookings", "create", "--name", "Ada", "--email", "ada@example.com", "--date", "2025-03-01", "--time", "10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Booking b-1: confirmed")

	out, err = run(t, srv, "bookings", "list", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"count": 0`)

	out, err = run(t, srv, "bookings", "delete", "b-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Booking b-1 deleted"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"POST /api/bookings",
		"GET /api/bookings?email=ada%40example.com",
		"DELETE /api/bookings/b-1",
	}, paths)
}
