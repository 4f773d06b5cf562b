package expand

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tansaku/internal/models"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func TestParseAlternatives(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "numbered list",
			reply: "1. deep learning basics\n2. neural network tutorial\n3. intro to AI",
			want:  []string{"deep learning basics", "neural network tutorial", "intro to AI"},
		},
		{
			name:  "bullets",
			reply: "- supervised learning\n• model training\n* data science methods",
			want:  []string{"supervised learning", "model training", "data science methods"},
		},
		{
			name:  "short lines dropped",
			reply: "AI\nshort\nlonger query here\n\n   \n",
			want:  []string{"longer query here"},
		},
		{
			name:  "capped at five",
			reply: "query one\nquery two\nquery three\nquery four\nquery five\nquery six",
			want:  []string{"query one", "query two", "query three", "query four", "query five"},
		},
		{
			name:  "empty",
			reply: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAlternatives(tt.reply))
		})
	}
}

func TestExpand_originalFirstAndDeduplicated(t *testing.T) {
	gen := &fakeGenerator{reply: "1. machine learning\n2. neural networks\n3. neural networks\n4. statistical learning"}
	res := New(gen, nil).Expand(context.Background(), "machine learning")

	require.NoError(t, res.Err())
	assert.Equal(t, models.StatusOK, res.Status)
	assert.Equal(t, []string{"machine learning", "neural networks", "statistical learning"}, res.Queries)
	assert.True(t, strings.Contains(gen.prompt, `Given the search query: "machine learning"`))
	assert.True(t, strings.Contains(gen.prompt, "Alternative queries:"))
}

func TestExpand_noGeneratorDegrades(t *testing.T) {
	res := New(nil, nil).Expand(context.Background(), "q")
	assert.Equal(t, models.StatusDegraded, res.Status)
	assert.Equal(t, []string{"q"}, res.Queries)
	assert.NoError(t, res.Err())
}

func TestExpand_generatorErrorDegrades(t *testing.T) {
	res := New(&fakeGenerator{err: errors.New("quota")}, nil).Expand(context.Background(), "q")
	assert.Equal(t, models.StatusDegraded, res.Status)
	assert.Equal(t, []string{"q"}, res.Queries)
	assert.Contains(t, res.Reason, "quota")
}

func TestExpand_unusableReplyDegrades(t *testing.T) {
	res := New(&fakeGenerator{reply: "ok\n-\n"}, nil).Expand(context.Background(), "q")
	assert.Equal(t, models.StatusDegraded, res.Status)
	assert.Equal(t, []string{"q"}, res.Queries)
}

func TestExpand_cancelledFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(&fakeGenerator{reply: "alternative one"}, nil).Expand(ctx, "q")
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err(), context.Canceled)
	assert.Empty(t, res.Queries)
}
