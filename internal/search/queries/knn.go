package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// Vector clause defaults.
const (
	DefaultKNNField      = "embedding_0"
	DefaultSimilarity    = 0.6
	DefaultBoost         = 5.0
	DefaultK             = 25
	DefaultNumCandidates = 100
)

// Reasons a vector clause is dropped.
const (
	ReasonRateLimited       = "rate_limited"
	ReasonEmbeddingError    = "embedding_error"
	ReasonDimensionMismatch = "dimension_mismatch"
)

// Throttler guards the embedding call.
type Throttler interface {
	Allow(ctx context.Context, key string) bool
}

// ErrorTracker receives failures that were swallowed to keep the search running.
type ErrorTracker interface {
	TrackDegraded(ctx context.Context, reason string, err error)
}

// KNNDeps are the collaborators of ByKNN. A nil Embedder disables vector search.
type KNNDeps struct {
	Embedder  domain.Embedder
	Throttler Throttler
	Tracker   ErrorTracker
}

// KNNOptions controls the vector clause; zero values take the defaults.
type KNNOptions struct {
	Query         string
	Field         string
	Similarity    float64
	Boost         float64
	K             int
	NumCandidates int
	// Dimensions, when positive, rejects embeddings of another length.
	Dimensions int
	// ThrottleKey identifies the caller for rate limiting.
	ThrottleKey string
}

func (o KNNOptions) withDefaults() KNNOptions {
	if o.Field == "" {
		o.Field = DefaultKNNField
	}
	if o.Similarity == 0 {
		o.Similarity = DefaultSimilarity
	}
	if o.Boost == 0 {
		o.Boost = DefaultBoost
	}
	if o.K == 0 {
		o.K = DefaultK
	}
	if o.NumCandidates == 0 {
		o.NumCandidates = DefaultNumCandidates
	}
	return o
}

// ByKNN embeds the query text and attaches a knn section. Rate limiting,
// embedding failures and unexpected vector sizes are tracked and leave the
// document without a vector clause; ByKNN never fails the search.
func ByKNN(ctx context.Context, doc *querydoc.Document, deps KNNDeps, opts KNNOptions) {
	if deps.Embedder == nil || strings.TrimSpace(opts.Query) == "" {
		return
	}
	opts = opts.withDefaults()
	usage := domain.UsageFromContext(ctx)

	if deps.Throttler != nil && !deps.Throttler.Allow(ctx, opts.ThrottleKey) {
		degrade(ctx, deps, ReasonRateLimited, domain.ErrRateLimited)
		return
	}

	result, err := deps.Embedder.Embed(ctx, opts.Query)
	if err != nil {
		degrade(ctx, deps, ReasonEmbeddingError, err)
		return
	}
	usage.AddTokens(result.TotalTokens)

	if opts.Dimensions > 0 && len(result.Embedding) != opts.Dimensions {
		degrade(ctx, deps, ReasonDimensionMismatch,
			fmt.Errorf("%w: expected %d, got %d", domain.ErrVectorDimMismatch, opts.Dimensions, len(result.Embedding)))
		return
	}

	doc.KNN = clause.Clause{
		"field":          opts.Field,
		"query_vector":   result.Embedding,
		"similarity":     opts.Similarity,
		"boost":          opts.Boost,
		"k":              opts.K,
		"num_candidates": opts.NumCandidates,
	}
}

func degrade(ctx context.Context, deps KNNDeps, reason string, err error) {
	domain.UsageFromContext(ctx).MarkDegraded()
	if deps.Tracker != nil {
		deps.Tracker.TrackDegraded(ctx, reason, err)
	}
}
