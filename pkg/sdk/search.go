package searchkit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
)

// User is the principal a search runs as.
type User struct {
	ID                   int64
	CanReadAllResources  bool
	CanAdminAllResources bool
	External             bool
}

// Scope restricts a search to a level and the projects or groups within it.
type Scope struct {
	Level      string   `json:"search_level"` // global, group or project
	ProjectIDs []int64  `json:"project_ids,omitempty"`
	AnyProject bool     `json:"any_project,omitempty"`
	GroupIDs   []int64  `json:"group_ids,omitempty"`
	Ancestries []string `json:"ancestries,omitempty"`
}

// Hit is one ranked document.
type Hit struct {
	ID             string
	Score          float64
	Source         json.RawMessage
	Highlight      map[string][]string
	MatchedQueries []string
	Cursor         string
}

// PageInfo describes the window a page covers.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     string
	EndCursor       string
}

// Page is one page of search results.
type Page struct {
	Total           int
	TotalRelation   string
	Hits            []Hit
	PageInfo        PageInfo
	EmbeddingTokens int
	// Degraded is set when the vector clause was dropped.
	Degraded bool
}

// Query is a built, paginated query document that was not executed.
type Query struct {
	Index     string
	CountOnly bool
	Body      json.RawMessage
}

// SearchBuilder is a fluent builder for entity searches.
type SearchBuilder struct {
	client *Client
	entity string

	user    *User
	options map[string]any
	page    searchuc.Page
}

// As runs the search on behalf of user. Without it the search is anonymous
// and sees public data only.
func (b *SearchBuilder) As(user User) *SearchBuilder {
	b.user = &user
	return b
}

// Query sets the free-text query.
func (b *SearchBuilder) Query(q string) *SearchBuilder {
	return b.Option("query", q)
}

// Scope sets the search level and its projects or groups.
func (b *SearchBuilder) Scope(s Scope) *SearchBuilder {
	return b.Option("scope", s)
}

// Option sets one entity option, e.g. "state" or "label_names".
func (b *SearchBuilder) Option(key string, value any) *SearchBuilder {
	b.options[key] = value
	return b
}

// Options sets several entity options at once.
func (b *SearchBuilder) Options(opts map[string]any) *SearchBuilder {
	for k, v := range opts {
		b.options[k] = v
	}
	return b
}

// First requests the first n results, or the n after the After cursor.
func (b *SearchBuilder) First(n int) *SearchBuilder {
	b.page.First = n
	return b
}

// Last requests the last n results, or the n before the Before cursor.
func (b *SearchBuilder) Last(n int) *SearchBuilder {
	b.page.Last = n
	return b
}

// After continues after a hit cursor.
func (b *SearchBuilder) After(cursor string) *SearchBuilder {
	b.page.After = cursor
	return b
}

// Before continues before a hit cursor.
func (b *SearchBuilder) Before(cursor string) *SearchBuilder {
	b.page.Before = cursor
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (_ *Page, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("search", b.entity, start, err) }()

	req, err := b.request()
	if err != nil {
		return nil, err
	}
	res, err := b.client.searchSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", b.entity, err)
	}

	hits := make([]Hit, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = Hit(h)
	}
	return &Page{
		Total:           res.Total,
		TotalRelation:   res.TotalRelation,
		Hits:            hits,
		PageInfo:        PageInfo(res.PageInfo),
		EmbeddingTokens: res.Embedding.TotalTokens,
		Degraded:        res.Embedding.Degraded,
	}, nil
}

// Prepare builds the query document Do would send, without executing it.
func (b *SearchBuilder) Prepare(ctx context.Context) (_ *Query, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("prepare", b.entity, start, err) }()

	req, err := b.request()
	if err != nil {
		return nil, err
	}
	p, err := b.client.searchSvc.Prepare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", b.entity, err)
	}
	body, err := p.Doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal %s query: %w", b.entity, err)
	}
	return &Query{Index: p.Index, CountOnly: p.CountOnly, Body: body}, nil
}

func (b *SearchBuilder) request() (searchuc.Request, error) {
	body, err := json.Marshal(b.options)
	if err != nil {
		return searchuc.Request{}, fmt.Errorf("encode %s options: %w", b.entity, err)
	}

	s := b.client.settings
	env := builders.Env{
		TextMode:         s.textMode,
		KNN:              s.knn,
		VectorsSupported: s.vectorsSupported,
	}
	if b.user != nil {
		env.Principal = authz.User{
			UserID:   b.user.ID,
			ReadAll:  b.user.CanReadAllResources,
			AdminAll: b.user.CanAdminAllResources,
			External: b.user.External,
		}
	}

	return searchuc.Request{
		Entity: b.entity,
		Env:    env,
		Body:   body,
		Page:   b.page,
	}, nil
}
