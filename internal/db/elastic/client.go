// Package elastic executes built query documents against Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/kailas-cloud/searchkit/internal/db"
)

// Compile-time check: Store implements db.Searcher.
var _ db.Searcher = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Store implements db.Searcher via the go-elasticsearch low-level client.
type Store struct {
	client *elasticsearch.Client
}

// NewStore creates an Elasticsearch store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks cluster connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer drain(res.Body)

	if res.IsError() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	}
	return nil
}

// Search posts the request body to the index's _search endpoint.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if req.Index == "" {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("index is required")}
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(req.Index),
		s.client.Search.WithBody(bytes.NewReader(req.Body)),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer drain(res.Body)

	if res.IsError() {
		return nil, &db.Error{Op: db.OpSearch, Err: decodeError(res.StatusCode, res.Body, req.Index)}
	}

	result, err := decodeResult(res.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return result, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
