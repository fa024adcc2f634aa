package searchkit

import (
	"context"
	"errors"
	"time"

	labelrepo "github.com/kailas-cloud/searchkit/internal/repository/label"
)

// Label is a label name owned by exactly one project or group.
type Label struct {
	ID        int64
	Name      string
	ProjectID int64
	GroupID   int64
}

// LabelService maintains the index that resolves label names in filters.
type LabelService struct {
	svc labelUseCase
	obs *observer
}

var errNoLabelStore = errors.New("searchkit: label index not configured (use WithRedis)")

// Put indexes labels.
func (s *LabelService) Put(ctx context.Context, labels ...Label) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("labels_put", "", start, err) }()

	if s.svc == nil {
		return errNoLabelStore
	}
	items := make([]labelrepo.Label, len(labels))
	for i, l := range labels {
		items[i] = labelrepo.Label(l)
	}
	return s.svc.Put(ctx, items...) //nolint:wrapcheck // repository errors carry the label name
}

// Delete removes a label from the index.
func (s *LabelService) Delete(ctx context.Context, l Label) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("labels_delete", "", start, err) }()

	if s.svc == nil {
		return errNoLabelStore
	}
	return s.svc.Delete(ctx, labelrepo.Label(l)) //nolint:wrapcheck // repository errors carry the label name
}
