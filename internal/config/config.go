package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// QdrantConfig 定义了 Qdrant 向量数据库的连接配置。
// URL 为空时服务仍可启动，入库与检索请求会按请求返回 StoreUnavailable。
type QdrantConfig struct {
	URL        string `yaml:"url"`        // Qdrant REST 地址 (例如: "http://localhost:6333")
	APIKey     string `yaml:"apiKey"`     // Qdrant API Key，可为空
	Collection string `yaml:"collection"` // 集合名称
	Timeout    string `yaml:"timeout"`    // 单次请求超时 (例如: "15s")
}

// VectorStoreConfig 选择向量库实现。
type VectorStoreConfig struct {
	Provider string       `yaml:"provider"` // "qdrant" 或 "memory"
	Qdrant   QdrantConfig `yaml:"qdrant"`   // Qdrant 配置
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Host        string `yaml:"host"`        // Redis 主机，留空表示不使用 Redis，仅使用本地内存
	Port        int    `yaml:"port"`        // Redis 端口
	Password    string `yaml:"password"`    // Redis 密码
	DB          int    `yaml:"db"`          // Redis 数据库编号
	PingTimeout string `yaml:"pingTimeout"` // 健康检查超时 (例如: "200ms")
}

// Address 返回 host:port 形式的地址。
func (c RedisConfig) Address() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SQLConfig 定义了关系型数据库的连接配置。
type SQLConfig struct {
	Driver          string `yaml:"driver"`          // "sqlite" 或 "mysql"
	Path            string `yaml:"path"`            // SQLite 文件路径
	DSN             string `yaml:"dsn"`             // MySQL DSN
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置，用于归档上传的原始文件。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点，留空表示不归档
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// DatabaseConfigs 包含所有外部存储的配置。
type DatabaseConfigs struct {
	SQL         SQLConfig         `yaml:"sql"`         // 关系型数据库配置
	Redis       RedisConfig       `yaml:"redis"`       // Redis 配置
	VectorStore VectorStoreConfig `yaml:"vectorStore"` // 向量库配置
	MinIO       MinIOConfig       `yaml:"minio"`       // MinIO 配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听与超时配置。
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	RequestTimeout string `yaml:"requestTimeout"` // 单个请求的处理超时 (例如: "30s")
	MaxUploadMB    int    `yaml:"maxUploadMB"`    // 上传文件大小上限 (MB)
}

// Address 返回监听地址。
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// EmbeddingConfig 包含 Embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`  // "hash" (确定性模拟) 或 "ollama"
	Model     string `yaml:"model"`     // 模型名称 (仅 ollama)
	BaseURL   string `yaml:"baseURL"`   // 服务地址 (仅 ollama)
	Dimension int    `yaml:"dimension"` // 向量维度
}

// ChunkingConfig 定义了分块的默认参数。
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunkSize"`    // fixed_size 窗口大小；semantic 的目标大小
	ChunkOverlap int `yaml:"chunkOverlap"` // fixed_size 重叠字符数
	MinChunkSize int `yaml:"minChunkSize"` // semantic 最小块大小
}

// RAGConfig 定义了检索与上下文拼装的参数。
type RAGConfig struct {
	TopK             int    `yaml:"topK"`             // 检索条数
	MaxContextLength int    `yaml:"maxContextLength"` // 上下文字符预算
	MaxHistoryTurns  int    `yaml:"maxHistoryTurns"`  // 读取的最近历史条数
	SessionTTL       string `yaml:"sessionTTL"`       // 会话过期时间 (例如: "24h")
	LocalSessions    int    `yaml:"localSessions"`    // 本地回退缓存可保存的会话数
}

// IngestConfig 定义了入库流程的参数。
type IngestConfig struct {
	Concurrency int `yaml:"concurrency"` // 并发 upsert 数量
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了按客户端限流的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow"
	MaxClients  int               `yaml:"maxClients"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	RAG        RAGConfig        `yaml:"rag"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// Default 返回一份完整的默认配置，与未提供配置文件时的行为一致。
func Default() *AppConfig {
	return &AppConfig{
		App:    AppInfo{Name: "palm-rag", Version: "1.0.0", Environment: "development"},
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000, RequestTimeout: "30s", MaxUploadMB: 20},
		Logger: LoggerConfig{Level: "info"},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "all-minilm",
			BaseURL:   "http://localhost:11434",
			Dimension: 384,
		},
		Chunking: ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 200},
		RAG: RAGConfig{
			TopK:             5,
			MaxContextLength: 2000,
			MaxHistoryTurns:  10,
			SessionTTL:       "24h",
			LocalSessions:    10000,
		},
		Ingest: IngestConfig{Concurrency: 4},
		Databases: DatabaseConfigs{
			SQL:   SQLConfig{Driver: "sqlite", Path: "./palm_local.db", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 3600},
			Redis: RedisConfig{Host: "localhost", Port: 6379, PingTimeout: "200ms"},
			VectorStore: VectorStoreConfig{
				Provider: "qdrant",
				Qdrant:   QdrantConfig{Collection: "documents", Timeout: "15s"},
			},
			MinIO: MinIOConfig{Bucket: "palm-uploads"},
		},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{
				Enabled:     false,
				Algorithm:   "tokenBucket",
				MaxClients:  10000,
				TokenBucket: TokenBucketConfig{Rate: 5, Capacity: 20},
				FixedWindow: FixedWindowConfig{Limit: 60, Window: "1m"},
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          "30s",
			},
		},
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，然后应用环境变量覆盖。
//
// 参数:
//
//	path: YAML 配置文件的路径。文件不存在时使用默认配置。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取、解析或校验失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		// 在默认值之上解析，未出现在文件中的字段保留默认值。
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 没有配置文件时只依赖默认值和环境变量。
	default:
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
