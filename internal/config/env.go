package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"palm-rag/internal/apperr"

	"github.com/joho/godotenv"
)

// LookupFunc 与 os.LookupEnv 签名一致，测试中可以替换。
type LookupFunc func(key string) (string, bool)

// LoadDotEnv 加载 .env 文件到进程环境变量中，文件不存在时忽略。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("加载 %s 失败: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv 使用环境变量覆盖配置项。
func ApplyEnv(cfg *AppConfig, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("环境变量 %s=%q 不是整数: %w", key, v, apperr.ErrInvalidConfig)
		}
		*dst = n
		return nil
	}

	str("QDRANT_URL", &cfg.Databases.VectorStore.Qdrant.URL)
	str("QDRANT_API_KEY", &cfg.Databases.VectorStore.Qdrant.APIKey)
	str("QDRANT_COLLECTION_NAME", &cfg.Databases.VectorStore.Qdrant.Collection)
	str("VECTOR_STORE_PROVIDER", &cfg.Databases.VectorStore.Provider)
	str("REDIS_HOST", &cfg.Databases.Redis.Host)
	str("REDIS_PASSWORD", &cfg.Databases.Redis.Password)
	str("SQLITE_PATH", &cfg.Databases.SQL.Path)
	str("DB_DRIVER", &cfg.Databases.SQL.Driver)
	str("DB_DSN", &cfg.Databases.SQL.DSN)
	str("APP_HOST", &cfg.Server.Host)
	str("LOG_LEVEL", &cfg.Logger.Level)
	str("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("OLLAMA_BASE_URL", &cfg.Embedding.BaseURL)
	str("MINIO_ENDPOINT", &cfg.Databases.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &cfg.Databases.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &cfg.Databases.MinIO.SecretKey)
	str("MINIO_BUCKET", &cfg.Databases.MinIO.Bucket)

	for key, dst := range map[string]*int{
		"REDIS_PORT":            &cfg.Databases.Redis.Port,
		"REDIS_DB":              &cfg.Databases.Redis.DB,
		"APP_PORT":              &cfg.Server.Port,
		"EMBEDDING_DIMENSION":   &cfg.Embedding.Dimension,
		"DEFAULT_CHUNK_SIZE":    &cfg.Chunking.ChunkSize,
		"DEFAULT_CHUNK_OVERLAP": &cfg.Chunking.ChunkOverlap,
		"TOP_K_RETRIEVAL":       &cfg.RAG.TopK,
		"MAX_CONTEXT_LENGTH":    &cfg.RAG.MaxContextLength,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate 检查配置中不可能成立的取值。
func (c *AppConfig) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperr.ErrInvalidConfig)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return bad("server.port %d 超出范围", c.Server.Port)
	}
	if c.Embedding.Dimension <= 0 {
		return bad("embedding.dimension 必须为正数")
	}
	switch c.Embedding.Provider {
	case "hash", "ollama":
	default:
		return bad("不支持的 embedding.provider %q", c.Embedding.Provider)
	}
	if c.Chunking.ChunkSize <= 0 {
		return bad("chunking.chunkSize 必须为正数")
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return bad("chunking.chunkOverlap 必须满足 0 <= overlap < chunkSize")
	}
	if c.Chunking.MinChunkSize < 0 {
		return bad("chunking.minChunkSize 不能为负数")
	}
	if c.RAG.TopK <= 0 {
		return bad("rag.topK 必须为正数")
	}
	if c.RAG.MaxContextLength <= 0 {
		return bad("rag.maxContextLength 必须为正数")
	}
	if c.RAG.MaxHistoryTurns < 0 {
		return bad("rag.maxHistoryTurns 不能为负数")
	}
	if c.Ingest.Concurrency <= 0 {
		return bad("ingest.concurrency 必须为正数")
	}
	switch c.Databases.SQL.Driver {
	case "sqlite", "mysql":
	default:
		return bad("不支持的 databases.sql.driver %q", c.Databases.SQL.Driver)
	}
	switch c.Databases.VectorStore.Provider {
	case "qdrant", "memory":
	default:
		return bad("不支持的 databases.vectorStore.provider %q", c.Databases.VectorStore.Provider)
	}
	for name, d := range map[string]string{
		"server.requestTimeout":                     c.Server.RequestTimeout,
		"rag.sessionTTL":                            c.RAG.SessionTTL,
		"databases.redis.pingTimeout":               c.Databases.Redis.PingTimeout,
		"databases.vectorStore.qdrant.timeout":      c.Databases.VectorStore.Qdrant.Timeout,
		"middleware.circuitBreaker.timeout":         c.Middleware.CircuitBreaker.Timeout,
		"middleware.rateLimiter.fixedWindow.window": c.Middleware.RateLimiter.FixedWindow.Window,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return bad("%s=%q 不是合法的时间间隔", name, d)
		}
	}
	return nil
}

// Duration 解析时间间隔字符串，为空或非法时返回 fallback。
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
