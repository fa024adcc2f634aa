package embedding

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DegradationTracker logs and counts vector clauses dropped from a search.
type DegradationTracker struct {
	degraded *prometheus.CounterVec
	logger   *zap.Logger
}

// NewDegradationTracker creates a tracker. degraded is a counter vec with
// label "reason", passed explicitly; nil skips counting.
func NewDegradationTracker(degraded *prometheus.CounterVec, logger *zap.Logger) *DegradationTracker {
	return &DegradationTracker{degraded: degraded, logger: logger}
}

// TrackDegraded records a swallowed failure.
func (t *DegradationTracker) TrackDegraded(_ context.Context, reason string, err error) {
	if t.degraded != nil {
		t.degraded.WithLabelValues(reason).Inc()
	}
	t.logger.Warn("Vector search degraded to text search",
		zap.String("reason", reason),
		zap.Error(err),
	)
}
