package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"palm-rag/internal/apperr"
	"palm-rag/internal/config"
	"palm-rag/internal/database/sqldb"
	"palm-rag/internal/embedding"
	"palm-rag/internal/rag_service/rag/dal"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/pipeline"
	"palm-rag/internal/rag_service/rag/storages/sessionstore"
	"palm-rag/internal/rag_service/rag/storages/vectorstore"
	"palm-rag/internal/rag_service/service"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newRouter(t *testing.T, store interfaces.VectorStore) *gin.Engine {
	t.Helper()
	db, err := sqldb.Open(&config.SQLConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.Discard()
	embedder, err := embedding.NewHashModel(32)
	require.NoError(t, err)
	local, err := sessionstore.NewLocalStore(10, time.Hour)
	require.NoError(t, err)
	sessions := sessionstore.NewTieredStore(nil, local, 0, log)
	docs := dal.NewDocumentDAL(db)

	indexing := pipeline.NewIndexingPipeline(embedder, store, 2, log)
	retrieval := pipeline.NewRetrievalPipeline(embedder, store, 3, log)
	orch := pipeline.NewOrchestrator(retrieval, sessions, pipeline.OrchestratorConfig{MaxContextLength: 800, MaxHistoryTurns: 10}, log)
	dbPing := service.PingFunc(func(ctx context.Context) error { return sqldb.Ping(ctx, db) })

	h := NewHandler(
		service.NewIngestService(indexing, docs, nil, config.ChunkingConfig{ChunkSize: 50, ChunkOverlap: 10, MinChunkSize: 20}, log),
		service.NewChatService(orch, sessions),
		service.NewDocumentService(docs, store, nil, log),
		service.NewBookingService(dal.NewBookingDAL(db), log),
		service.NewHealthService(dbPing, sessions, store, time.Second),
		1<<10,
		log,
	)
	return SetupRouter(h, log)
}

func memStore(t *testing.T) *vectorstore.MemoryStore {
	s, err := vectorstore.NewMemoryStore(32)
	require.NoError(t, err)
	return s
}

func do(r http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(r http.Handler, method, path string, v any) *httptest.ResponseRecorder {
	var body []byte
	if v != nil {
		body, _ = json.Marshal(v)
	}
	return do(r, method, path, body, "application/json")
}

func upload(t *testing.T, r http.Handler, fileName string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return do(r, http.MethodPost, "/api/ingest", buf.Bytes(), mw.FormDataContentType())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const faq = "Interviews last forty five minutes. Candidates meet two engineers. " +
	"Results are shared within a week. Remote interviews use video calls."

func TestIngestChatHistoryFlow(t *testing.T) {
	r := newRouter(t, memStore(t))

	w := upload(t, r, "faq.txt", []byte(faq), map[string]string{"chunking_strategy": "semantic", "chunk_size": "60", "min_chunk_size": "20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ingest := decode(t, w)
	assert.Equal(t, "success", ingest["status"])
	docID := ingest["document_id"].(string)
	assert.Greater(t, ingest["chunks"].(float64), 0.0)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = doJSON(r, http.MethodPost, "/api/chat", map[string]string{"query": "How long do interviews last?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	chat := decode(t, w)
	sessionID := chat["session_id"].(string)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, false, chat["degraded"])
	assert.NotEmpty(t, chat["chunk_ids"])
	assert.Equal(t, []any{docID}, chat["sources"])

	// user_message alias
	w = doJSON(r, http.MethodPost, "/api/chat", map[string]string{"session_id": sessionID, "user_message": "Is it remote?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/chat/"+sessionID+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)
	assert.EqualValues(t, 4, history["message_count"])
	turns := history["history"].([]any)
	assert.Equal(t, "Is it remote?", turns[2].(map[string]any)["content"])

	w = doJSON(r, http.MethodDelete, "/api/chat/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])
	w = doJSON(r, http.MethodDelete, "/api/chat/"+sessionID, nil)
	assert.Equal(t, "info", decode(t, w)["status"])

	w = doJSON(r, http.MethodGet, "/api/chat/"+sessionID+"/history", nil)
	assert.EqualValues(t, 0, decode(t, w)["message_count"])
}

func TestIngestErrors(t *testing.T) {
	r := newRouter(t, memStore(t))

	tests := []struct {
		name     string
		file     string
		content  []byte
		fields   map[string]string
		wantCode string
	}{
		{"missing file", "", nil, nil, "validation_error"},
		{"unsupported type", "faq.docx", []byte(faq), nil, "validation_error"},
		{"pdf extension on text", "faq.pdf", []byte(faq), nil, "validation_error"},
		{"non numeric size", "faq.txt", []byte(faq), map[string]string{"chunk_size": "big"}, "validation_error"},
		{"overlap too large", "faq.txt", []byte(faq), map[string]string{"chunk_size": "10", "chunk_overlap": "20"}, "invalid_config"},
		{"too large", "faq.txt", bytes.Repeat([]byte("a"), 2<<10), nil, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, r, tt.file, tt.content, tt.fields)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestIngestStoreUnavailable(t *testing.T) {
	r := newRouter(t, vectorstore.NewUnavailable("qdrant url is not configured"))

	w := upload(t, r, "faq.txt", []byte(faq), nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "store_unavailable", body["code"])
	assert.NotEmpty(t, body["failed_chunks"])
}

func TestChatDegradedWithoutVectorStore(t *testing.T) {
	r := newRouter(t, vectorstore.NewUnavailable("qdrant url is not configured"))

	w := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"session_id": "fresh", "query": "hello?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, []any{}, body["chunk_ids"])
	assert.Equal(t, "fresh", body["session_id"])
}

func TestChatValidation(t *testing.T) {
	r := newRouter(t, memStore(t))

	w := doJSON(r, http.MethodPost, "/api/chat", map[string]string{"session_id": "s"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["code"])

	w = do(r, http.MethodPost, "/api/chat", []byte("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentEndpoints(t *testing.T) {
	r := newRouter(t, memStore(t))
	id := "0f8fad5b-d9cb-469f-a165-70867728950e"

	w := upload(t, r, "faq.txt", []byte(faq), map[string]string{"document_id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = doJSON(r, http.MethodGet, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode(t, w)
	assert.Equal(t, "faq.txt", doc["filename"])
	assert.Equal(t, "fixed_size", doc["chunking_strategy"])

	w = doJSON(r, http.MethodDelete, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["code"])
}

func TestBookingEndpoints(t *testing.T) {
	r := newRouter(t, memStore(t))

	w := doJSON(r, http.MethodPost, "/api/bookings", map[string]string{
		"name": "Ada Lovelace", "email": "ada@example.com", "date": "2025-04-01", "time": "14:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "confirmed", created["status"])
	id := created["booking_id"].(string)

	w = doJSON(r, http.MethodPost, "/api/bookings", map[string]string{
		"name": "Bad", "email": "nope", "date": "2025-04-01", "time": "14:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada Lovelace", decode(t, w)["name"])

	w = doJSON(r, http.MethodGet, "/api/bookings?email=ada@example.com", nil)
	assert.EqualValues(t, 1, decode(t, w)["count"])
	w = doJSON(r, http.MethodGet, "/api/bookings?email=other@example.com", nil)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = doJSON(r, http.MethodDelete, "/api/bookings/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/bookings/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouter(t, memStore(t))
	w := doJSON(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	components := body["components"].(map[string]any)
	assert.Equal(t, "ok", components["database"])
	assert.Equal(t, "ok", components["vector_store"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("x: %w", apperr.ErrInvalidConfig)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(apperr.ErrEmbeddingFailure))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(&apperr.IngestError{Err: apperr.ErrStoreUnavailable}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("boom")))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newRouter(t, memStore(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))

	w = do(r, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "not_found"))
}
