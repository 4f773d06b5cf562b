package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// RemoteConfig configures an OpenAI-compatible embedding endpoint.
type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// RemoteEmbedder calls an OpenAI-compatible embeddings API.
type RemoteEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// NewRemoteEmbedder creates an embedder for cfg. An empty APIKey is an error.
func NewRemoteEmbedder(cfg RemoteConfig) (*RemoteEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding: model is required")
	}
	client, err := openai.New(
		openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	dim := cfg.Dimensions
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &RemoteEmbedder{embedder: emb, dimensions: dim}, nil
}

// Embed returns the embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.embedder.EmbedQuery(ctx, text)
}

// EmbedBatch returns embeddings for texts in input order.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embedder.EmbedDocuments(ctx, texts)
}

// Dimensions returns the configured embedding dimension.
func (e *RemoteEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client holds no resources.
func (e *RemoteEmbedder) Close() error {
	return nil
}
