package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"palm-rag/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 2000, cfg.RAG.MaxContextLength)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
chunking:
  chunkSize: 800
  chunkOverlap: 100
databases:
  vectorStore:
    provider: memory
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, "memory", cfg.Databases.VectorStore.Provider)
	// 未出现的字段保留默认值
	assert.Equal(t, 200, cfg.Chunking.MinChunkSize)
	assert.Equal(t, "documents", cfg.Databases.VectorStore.Qdrant.Collection)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(cfg, lookupFrom(map[string]string{
		"QDRANT_URL":             "http://qdrant:6333",
		"QDRANT_COLLECTION_NAME": "docs",
		"REDIS_HOST":             "cache",
		"REDIS_PORT":             "6380",
		"TOP_K_RETRIEVAL":        "7",
		"DEFAULT_CHUNK_SIZE":     "300",
		"LOG_LEVEL":              "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant:6333", cfg.Databases.VectorStore.Qdrant.URL)
	assert.Equal(t, "docs", cfg.Databases.VectorStore.Qdrant.Collection)
	assert.Equal(t, "cache:6380", cfg.Databases.Redis.Address())
	assert.Equal(t, 7, cfg.RAG.TopK)
	assert.Equal(t, 300, cfg.Chunking.ChunkSize)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestApplyEnvRejectsNonNumeric(t *testing.T) {
	err := ApplyEnv(Default(), lookupFrom(map[string]string{"APP_PORT": "eighty"}))
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"zero chunk size", func(c *AppConfig) { c.Chunking.ChunkSize = 0 }},
		{"overlap equals size", func(c *AppConfig) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"negative overlap", func(c *AppConfig) { c.Chunking.ChunkOverlap = -1 }},
		{"zero top k", func(c *AppConfig) { c.RAG.TopK = 0 }},
		{"unknown embedding provider", func(c *AppConfig) { c.Embedding.Provider = "bert" }},
		{"unknown sql driver", func(c *AppConfig) { c.Databases.SQL.Driver = "oracle" }},
		{"bad duration", func(c *AppConfig) { c.RAG.SessionTTL = "one day" }},
		{"port out of range", func(c *AppConfig) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), apperr.ErrInvalidConfig))
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Duration("2s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("soon", time.Minute))
}

func TestRedisAddressEmptyHost(t *testing.T) {
	assert.Equal(t, "", RedisConfig{Port: 6379}.Address())
}
