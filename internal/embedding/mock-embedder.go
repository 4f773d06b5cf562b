package embedding

import (
	"context"
	"math"

	"github.com/hyperjump/tansaku/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline use. It
// derives a unit vector from the text hash so equal text embeds equally.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := hashText(text)
	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *MockEmbedder) Close() error {
	return nil
}

func hashText(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
