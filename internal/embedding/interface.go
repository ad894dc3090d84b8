package embedding

import "context"

// Embedding 定义了所有 embedding 模型需要实现的接口。
// 同一输入必须得到同一向量，且所有向量的长度都等于 Dimension()。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。文本去除空白后为空时返回 apperr.ErrEmbeddingFailure。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量，返回顺序与输入一致。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension 返回向量维度。
	Dimension() int
}

// ModelType 是一个枚举类型，用于表示不同的 embedding 提供商。
type ModelType string

const (
	Hash   ModelType = "hash"   // 确定性的特征哈希模型，无需外部服务。
	Ollama ModelType = "ollama" // Ollama 模型类型。
)
