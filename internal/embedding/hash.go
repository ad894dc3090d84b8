package embedding

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"palm-rag/internal/apperr"

	"github.com/cespare/xxhash/v2"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashModel 是一个确定性的 embedding 模型：把小写后的词元用 xxhash 映射到固定数量的桶中
// (带符号)，再做 L2 归一化。相同文本总是得到相同向量，共享词元越多的文本余弦相似度越高。
type HashModel struct {
	dimension int
}

// NewHashModel 创建一个指定维度的 HashModel。
func NewHashModel(dimension int) (*HashModel, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension %d: %w", dimension, apperr.ErrInvalidConfig)
	}
	return &HashModel{dimension: dimension}, nil
}

// Dimension 返回向量维度。
func (m *HashModel) Dimension() int { return m.dimension }

// Embed 为单个文本生成嵌入向量。
func (m *HashModel) Embed(_ context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty text: %w", apperr.ErrEmbeddingFailure)
	}

	vec := make([]float64, m.dimension)
	tokens := wordPattern.FindAllString(strings.ToLower(trimmed), -1)
	if len(tokens) == 0 {
		// 只有标点等符号时，对整个字符串做哈希
		tokens = []string{trimmed}
	}
	for _, tok := range tokens {
		m.add(vec, tok)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		// 词元互相抵消时退化为整串哈希
		m.add(vec, trimmed)
		norm = 1
	}
	norm = math.Sqrt(norm)

	out := make([]float32, m.dimension)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch 为一批文本生成嵌入向量。
func (m *HashModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (m *HashModel) add(vec []float64, token string) {
	h := xxhash.Sum64String(token)
	idx := h % uint64(m.dimension)
	if h>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}
