package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"palm-rag/internal/apperr"

	ollama "github.com/ollama/ollama/api"
)

// OllamaModel 是一个用于 Ollama API 的 Embedding 模型客户端。
type OllamaModel struct {
	client    *ollama.Client // Ollama 客户端实例。
	model     string         // 要使用的模型名称。
	dimension int            // 期望的向量维度，与向量库集合一致。
}

// NewOllamaModel 创建一个新的 OllamaModel 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//	dimension: 期望的向量维度，返回的向量长度不一致时视为 EmbeddingFailure。
//
// 返回值:
//
//	*OllamaModel: 新创建的 OllamaModel 客户端实例。
//	error: 如果基准 URL 无效，则返回错误。
func NewOllamaModel(model, baseURL string, dimension int) (*OllamaModel, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model name is empty: %w", apperr.ErrInvalidConfig)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension %d: %w", dimension, apperr.ErrInvalidConfig)
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %v: %w", err, apperr.ErrInvalidConfig)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &OllamaModel{client: ollama.NewClient(parsedURL, hc), model: model, dimension: dimension}, nil
}

// Dimension 返回向量维度。
func (m *OllamaModel) Dimension() int { return m.dimension }

// Embed 为单个文本生成嵌入向量。
func (m *OllamaModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch 为一批文本生成嵌入向量，使用 Ollama 的批量嵌入功能。
func (m *OllamaModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("text %d is empty: %w", i, apperr.ErrEmbeddingFailure)
		}
	}

	resp, err := m.client.Embed(ctx, &ollama.EmbedRequest{
		Model: m.model,
		Input: texts,
	})
	if err != nil {
		var se ollama.StatusError
		if errors.As(err, &se) {
			// 服务可达，但拒绝了请求 (例如模型不存在)
			return nil, fmt.Errorf("ollama embed: %v: %w", err, apperr.ErrEmbeddingFailure)
		}
		return nil, fmt.Errorf("ollama embed: %v: %w", err, apperr.ErrStoreUnavailable)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs: %w",
			len(resp.Embeddings), len(texts), apperr.ErrEmbeddingFailure)
	}
	for i, v := range resp.Embeddings {
		if len(v) != m.dimension {
			return nil, fmt.Errorf("embedding %d has %d dimensions, expected %d: %w",
				i, len(v), m.dimension, apperr.ErrEmbeddingFailure)
		}
	}
	return resp.Embeddings, nil
}
