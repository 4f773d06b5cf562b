package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultDimensions is the vector length when none is configured.
	DefaultDimensions = 768
	// PlaceholderValue fills every component of a degraded embedding.
	PlaceholderValue float32 = 0.1

	defaultTimeout = 30 * time.Second
)

// Limiter admits calls against an external quota.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Result is the outcome of one embedding request.
type Result struct {
	Vector []float32
	Status models.Status
	Reason string
	err    error
}

// Err returns a non-nil error only when Status is StatusFailed.
func (r Result) Err() error {
	if r.Status != models.StatusFailed {
		return nil
	}
	if r.err != nil {
		return fmt.Errorf("embedding failed: %w", r.err)
	}
	return fmt.Errorf("embedding failed: %s", r.Reason)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// Backend is nil when no credentials are configured.
	Backend    Embedder
	Limiter    Limiter
	Dimensions int
	CacheSize  int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Provider embeds text for indexing and search. Remote failures degrade to
// a placeholder vector; only cancellation of the caller's context fails.
type Provider struct {
	backend    Embedder
	limiter    Limiter
	cache      *Cache
	dimensions int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProvider creates a provider from cfg.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	cache, err := NewCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	dim := cfg.Dimensions
	if dim <= 0 {
		dim = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{
		backend:    cfg.Backend,
		limiter:    cfg.Limiter,
		cache:      cache,
		dimensions: dim,
		timeout:    timeout,
		logger:     utils.OrNop(cfg.Logger),
	}, nil
}

// Embed returns a vector of exactly Dimensions() components for text.
func (p *Provider) Embed(ctx context.Context, text string) Result {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if p.backend == nil {
		return p.placeholder("no credentials configured")
	}
	if vec, ok := p.cache.Get(text); ok {
		return Result{Vector: vec, Status: models.StatusOK}
	}
	if p.limiter != nil {
		if err := p.limiter.Acquire(ctx); err != nil {
			return failed(err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	vec, err := p.backend.Embed(callCtx, text)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed(ctxErr)
		}
		p.logger.Warn("embedding request failed, using placeholder", zap.Error(err))
		return p.placeholder(fmt.Sprintf("embedding request failed: %v", err))
	}
	if len(vec) == 0 {
		p.logger.Warn("embedding response was empty, using placeholder")
		return p.placeholder("empty embedding response")
	}
	if len(vec) != p.dimensions {
		p.logger.Warn("embedding dimension mismatch",
			zap.Int("got", len(vec)),
			zap.Int("want", p.dimensions),
		)
		vec = utils.FitDimension(vec, p.dimensions)
	}
	p.cache.Set(text, vec)
	return Result{Vector: vec, Status: models.StatusOK}
}

// Dimensions returns the length of every vector Embed produces.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Enabled reports whether a backend is configured.
func (p *Provider) Enabled() bool {
	return p.backend != nil
}

// Close releases the backend.
func (p *Provider) Close() error {
	if p.backend == nil {
		return nil
	}
	return p.backend.Close()
}

func (p *Provider) placeholder(reason string) Result {
	return Result{
		Vector: utils.Filled(p.dimensions, PlaceholderValue),
		Status: models.StatusDegraded,
		Reason: reason,
	}
}

func failed(err error) Result {
	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "deadline exceeded"
	}
	return Result{Status: models.StatusFailed, Reason: reason, err: err}
}
