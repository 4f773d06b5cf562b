// Package llm wraps an OpenAI-compatible chat model for short prompts
// such as query expansion and summarization.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/pkg/utils"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Model is the subset of llms.Model the generator uses.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Limiter admits calls against an external quota.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Config configures a Generator.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Generator produces text completions. It is safe for concurrent use.
type Generator struct {
	model       Model
	limiter     Limiter
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a generator backed by an OpenAI-compatible endpoint.
func New(cfg Config, limiter Limiter, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	client, err := openai.New(
		openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWithModel(client, cfg, limiter, logger), nil
}

// NewWithModel creates a generator around an existing model.
func NewWithModel(model Model, cfg Config, limiter Limiter, logger *zap.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		model:       model,
		limiter:     limiter,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		logger:      utils.OrNop(logger),
	}
}

// Generate sends prompt as a single user message and returns the trimmed reply.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Acquire(ctx); err != nil {
			return "", err
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(callCtx, messages, opts...)
	if err != nil {
		g.logger.Debug("llm request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("llm request completed", zap.Int("chars", len(text)), zap.Duration("elapsed", time.Since(start)))
	return text, nil
}
