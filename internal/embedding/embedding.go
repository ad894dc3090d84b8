package embedding

import (
	"fmt"

	"palm-rag/internal/apperr"
	"palm-rag/internal/config"
)

// NewEmdModel 根据配置创建并返回一个 Embedding 模型实例。
//
// 参数:
//
//	cfg: embedding 配置，provider 为 "hash" 或 "ollama"。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	switch ModelType(cfg.Provider) {
	case Hash, "":
		return NewHashModel(cfg.Dimension)
	case Ollama:
		return NewOllamaModel(cfg.Model, cfg.BaseURL, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q: %w", cfg.Provider, apperr.ErrInvalidConfig)
	}
}
