package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a violated caller contract (missing or invalid option).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownEntity signals a search entity with no query builder.
	ErrUnknownEntity = errors.New("unknown search entity")
	// ErrInvalidCursor signals an undecodable pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals an embedding of unexpected length.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrSearchEngine signals a failed request to the search engine.
	ErrSearchEngine = errors.New("search engine error")
)

// ArgumentError names the option that broke the caller contract.
type ArgumentError struct {
	Key    string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("%s is a required option", e.Key)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// MissingOption returns an ArgumentError for an absent required option.
func MissingOption(key string) error {
	return &ArgumentError{Key: key}
}

// InvalidOption returns an ArgumentError for an option with an unusable value.
func InvalidOption(key, reason string) error {
	return &ArgumentError{Key: key, Reason: reason}
}
