package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, LabelHigh},
		{0.8, LabelModerate},
		{0.61, LabelModerate},
		{0.6, LabelPartial},
		{0.41, LabelPartial},
		{0.4, LabelLimited},
		{-0.2, LabelLimited},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Explain(tt.score), "score %v", tt.score)
	}
}

func TestEnricher_Summary_shortBodyVerbatim(t *testing.T) {
	en := NewEnricher(fakeSummarizer{reply: "unused"}, 100, 50, 2, nil)
	body := strings.Repeat("w ", 100)
	got, err := en.Summary(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestEnricher_Summary_cancelled(t *testing.T) {
	en := NewEnricher(fakeSummarizer{err: context.Canceled}, 1, 50, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := en.Summary(ctx, "two words")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummaryPrompt(t *testing.T) {
	p := SummaryPrompt("the body", 50)
	assert.Contains(t, p, "approximately 50 words")
	assert.Contains(t, p, "Content: the body")
	assert.True(t, strings.HasSuffix(p, "Summary:"))
}
