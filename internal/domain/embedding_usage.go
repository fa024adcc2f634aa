package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects query embedding token usage for a single search request.
// The transport puts a mutable pointer into the context before building the query;
// the vector leaf writes after embedding; the transport reads it for response headers.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool // true if embedding was requested, even on a cache hit with 0 tokens
	Degraded    bool // true if the vector clause was dropped
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}

// MarkDegraded records that the vector clause was omitted.
func (u *EmbeddingUsage) MarkDegraded() {
	if u != nil {
		u.Degraded = true
	}
}
