package search

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/db"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
)

// Builder turns an entity request body into a query document.
type Builder interface {
	Build(ctx context.Context, entity string, env builders.Env, body []byte) (builders.Built, error)
}

// Repository executes query documents against the search engine.
type Repository interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
}
