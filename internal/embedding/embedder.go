// Package embedding turns text into fixed-dimension vectors through a
// remote OpenAI-compatible API, with rate limiting, caching and a
// placeholder fallback when the backend is unavailable.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
