package ratelimit

import "context"

// Class identifies a family of external API calls that share a quota.
type Class string

const (
	// ClassEmbedding covers embedding API calls.
	ClassEmbedding Class = "embedding"
	// ClassGenerative covers generative text API calls.
	ClassGenerative Class = "generative"
)

// Set holds one Limiter per API class.
type Set struct {
	limiters map[Class]*Limiter
}

// NewSet creates limiters for the embedding and generative classes.
func NewSet(embeddingPerMinute, generativePerMinute int, opts ...Option) *Set {
	return &Set{limiters: map[Class]*Limiter{
		ClassEmbedding:  New(string(ClassEmbedding), embeddingPerMinute, opts...),
		ClassGenerative: New(string(ClassGenerative), generativePerMinute, opts...),
	}}
}

// For returns the limiter for class, or nil (unlimited) for an unknown class.
func (s *Set) For(class Class) *Limiter {
	if s == nil {
		return nil
	}
	return s.limiters[class]
}

// Acquire blocks on the limiter for class. Unknown classes are unlimited.
func (s *Set) Acquire(ctx context.Context, class Class) error {
	return s.For(class).Acquire(ctx)
}
