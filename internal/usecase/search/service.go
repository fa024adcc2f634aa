// Package search runs entity searches: build, paginate, execute.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkit/internal/db"
	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/cursor"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/logger"
	"github.com/kailas-cloud/searchkit/internal/metrics"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
	"github.com/kailas-cloud/searchkit/internal/search/keyset"
)

// Page defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Config controls paging and index routing.
type Config struct {
	// Indices maps entity names to index names.
	Indices         map[string]string
	DefaultPageSize int
	MaxPageSize     int
	TieBreaker      string
}

// Page selects a window of results. First and Last are mutually exclusive,
// as are Before and After. Zero sizes mean "not supplied".
type Page struct {
	First  int
	Last   int
	Before string
	After  string
}

// Request is a single entity search.
type Request struct {
	Entity string
	Env    builders.Env
	Body   []byte
	Page   Page
}

// Hit is a result document with the cursor that points at it.
type Hit struct {
	ID             string
	Score          float64
	Source         json.RawMessage
	Highlight      map[string][]string
	MatchedQueries []string
	Cursor         string
}

// PageInfo describes the neighbours of the returned page.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     string
	EndCursor       string
}

// Result is one page of hits.
type Result struct {
	Entity        string
	Total         int
	TotalRelation string
	Hits          []Hit
	PageInfo      PageInfo
	Embedding     domain.EmbeddingUsage
}

// Prepared is the document a search would send, before execution.
type Prepared struct {
	Entity    string
	Index     string
	Doc       *querydoc.Document
	CountOnly bool
	Embedding domain.EmbeddingUsage

	size      int
	backward  bool
	paginator *keyset.Paginator
}

// Service handles entity searches.
type Service struct {
	builder Builder
	repo    Repository
	cfg     Config
	logger  *zap.Logger
}

// New creates a search service.
func New(builder Builder, repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.TieBreaker == "" {
		cfg.TieBreaker = keyset.DefaultTieBreaker
	}
	return &Service{builder: builder, repo: repo, cfg: cfg, logger: logger}
}

// Prepare builds and paginates the query document without executing it.
func (s *Service) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	size, err := s.pageSize(req.Page)
	if err != nil {
		return nil, err
	}
	position, err := decodePosition(req.Page)
	if err != nil {
		return nil, err
	}

	index, ok := s.cfg.Indices[req.Entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, req.Entity)
	}

	ctx, usage := usageFromContext(ctx)

	built, err := s.builder.Build(ctx, req.Entity, req.Env, req.Body)
	if err != nil {
		metrics.QueryBuildTotal.WithLabelValues(req.Entity, "error").Inc()
		return nil, fmt.Errorf("build query: %w", err)
	}
	metrics.QueryBuildTotal.WithLabelValues(req.Entity, "ok").Inc()

	p := &Prepared{
		Entity:    req.Entity,
		Index:     index,
		CountOnly: built.CountOnly,
		Embedding: *usage,
		size:      size,
		backward:  req.Page.Last > 0,
	}

	if built.CountOnly {
		doc := built.Doc.Clone()
		doc.SetSize(0)
		p.Doc = doc
		return p, nil
	}

	pg := keyset.New(built.Doc, built.Sort, keyset.WithTieBreaker(s.cfg.TieBreaker))
	if pg.Relevance() {
		if err := position.requireScores(); err != nil {
			return nil, err
		}
		// search_after cannot express "first n before", so relevance pages
		// bounded by before are always fetched backwards.
		p.backward = p.backward || position.before != nil
	}
	switch {
	case position.after != nil:
		pg.After(position.after.Primary, position.after.TieBreaker)
	case position.before != nil:
		pg.Before(position.before.Primary, position.before.TieBreaker)
	}

	// One extra hit tells whether another page exists.
	if p.backward {
		p.Doc = pg.Last(size + 1)
	} else {
		p.Doc = pg.First(size + 1)
	}
	p.paginator = pg
	return p, nil
}

// Search builds, paginates and executes an entity search.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	prepared, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	body, err := prepared.Doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	start := time.Now()
	res, err := s.repo.Search(ctx, &db.SearchRequest{Index: prepared.Index, Body: body})
	metrics.SearchRequestDuration.WithLabelValues(req.Entity).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchEngineErrorsTotal.WithLabelValues(req.Entity).Inc()
		logger.FromContext(ctx).Error("Search request failed",
			zap.String("entity", req.Entity),
			zap.String("index", prepared.Index),
			zap.Error(err),
		)
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchEngine, err)
	}

	result := &Result{
		Entity:        req.Entity,
		Total:         res.Total,
		TotalRelation: res.TotalRelation,
		Embedding:     prepared.Embedding,
	}
	if prepared.CountOnly {
		result.Hits = []Hit{}
		return result, nil
	}

	s.page(result, prepared, res.Hits, req.Page)
	s.logger.Debug("Search completed",
		zap.String("entity", req.Entity),
		zap.Int("total", result.Total),
		zap.Int("hits", len(result.Hits)),
	)
	return result, nil
}

func (s *Service) page(result *Result, p *Prepared, raw []db.SearchHit, page Page) {
	more := len(raw) > p.size
	if more {
		raw = raw[:p.size]
	}
	if p.backward {
		raw = keyset.ReversePage(raw)
	}

	hits := make([]Hit, 0, len(raw))
	for _, h := range raw {
		hit := Hit{
			ID:             h.ID,
			Score:          h.Score,
			Source:         h.Source,
			Highlight:      h.Highlight,
			MatchedQueries: h.MatchedQueries,
		}
		if c, ok := p.paginator.CursorFor(h.Sort); ok {
			hit.Cursor = c.Encode()
		}
		hits = append(hits, hit)
	}
	result.Hits = hits

	if p.backward {
		result.PageInfo.HasPreviousPage = more
		result.PageInfo.HasNextPage = page.Before != ""
	} else {
		result.PageInfo.HasNextPage = more
		result.PageInfo.HasPreviousPage = page.After != ""
	}
	if len(hits) > 0 {
		result.PageInfo.StartCursor = hits[0].Cursor
		result.PageInfo.EndCursor = hits[len(hits)-1].Cursor
	}
}

func (s *Service) pageSize(page Page) (int, error) {
	switch {
	case page.First < 0:
		return 0, domain.InvalidOption("first", "must be positive")
	case page.Last < 0:
		return 0, domain.InvalidOption("last", "must be positive")
	case page.First > 0 && page.Last > 0:
		return 0, domain.InvalidOption("last", "cannot be combined with first")
	}

	size := max(page.First, page.Last)
	if size == 0 {
		size = s.cfg.DefaultPageSize
	}
	return min(size, s.cfg.MaxPageSize), nil
}

type position struct {
	before *cursor.Cursor
	after  *cursor.Cursor
}

// requireScores rejects cursors without a score, which relevance pages need.
func (pos position) requireScores() error {
	for _, c := range []*cursor.Cursor{pos.after, pos.before} {
		if c != nil && c.IsPrimaryNull() {
			return fmt.Errorf("%w: relevance cursor has no score", domain.ErrInvalidCursor)
		}
	}
	return nil
}

func decodePosition(page Page) (position, error) {
	var pos position
	if page.Before != "" && page.After != "" {
		return pos, domain.InvalidOption("before", "cannot be combined with after")
	}
	if page.After != "" {
		c, err := cursor.Decode(page.After)
		if err != nil {
			return pos, fmt.Errorf("after: %w", err)
		}
		pos.after = &c
	}
	if page.Before != "" {
		c, err := cursor.Decode(page.Before)
		if err != nil {
			return pos, fmt.Errorf("before: %w", err)
		}
		pos.before = &c
	}
	return pos, nil
}

// usageFromContext reuses the caller's usage collector or installs one.
func usageFromContext(ctx context.Context) (context.Context, *domain.EmbeddingUsage) {
	if u := domain.UsageFromContext(ctx); u != nil {
		return ctx, u
	}
	return domain.NewContextWithUsage(ctx)
}
