package searchkit

import "github.com/kailas-cloud/searchkit/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument = domain.ErrInvalidArgument
	ErrNotFound        = domain.ErrNotFound
	ErrUnknownEntity   = domain.ErrUnknownEntity
	ErrInvalidCursor   = domain.ErrInvalidCursor
	ErrSearchEngine    = domain.ErrSearchEngine
)
