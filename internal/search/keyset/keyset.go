// Package keyset pages through search results with cursors instead of offsets.
package keyset

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/cursor"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DefaultTieBreaker is the unique field appended to every sort order.
const DefaultTieBreaker = "id"

// ScoreField sorts by relevance. An empty sort order pages on it.
const ScoreField = "_score"

// Values the search engine returns as sort values for documents missing a
// numeric sort field.
const (
	MaxSentinel int64 = math.MaxInt64
	MinSentinel int64 = math.MinInt64
)

type side int

const (
	sideAfter side = iota + 1
	sideBefore
)

type bound struct {
	side   side
	cursor cursor.Cursor
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithTieBreaker sets the tie-breaker field. Ignored when empty.
func WithTieBreaker(field string) Option {
	return func(p *Paginator) {
		if field != "" {
			p.tieBreaker = field
		}
	}
}

// Paginator turns a base document and sort order into bounded page documents.
// It keeps a single bound; the last Before or After call wins.
type Paginator struct {
	base       *querydoc.Document
	spec       sortorder.Spec
	tieBreaker string
	bound      *bound
}

// New creates a paginator. An empty spec orders by descending relevance then
// ascending tie-breaker. A single-field spec gets the tie-breaker appended
// with the primary direction. For longer specs a tie-breaker that is not part
// of the sort spec falls back to the second field.
func New(base *querydoc.Document, spec sortorder.Spec, opts ...Option) *Paginator {
	p := &Paginator{
		base:       base,
		tieBreaker: DefaultTieBreaker,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.spec = p.resolveSpec(spec)
	return p
}

func (p *Paginator) resolveSpec(spec sortorder.Spec) sortorder.Spec {
	out := slices.Clone(spec)
	switch {
	case len(out) == 0:
		return sortorder.Spec{
			{Name: ScoreField, Direction: sortorder.Desc},
			{Name: p.tieBreaker, Direction: sortorder.Asc},
		}
	case len(out) == 1:
		if out[0].Name != p.tieBreaker {
			out = append(out, sortorder.Field{Name: p.tieBreaker, Direction: out[0].Direction})
		}
	case !out.Has(p.tieBreaker):
		p.tieBreaker = out[1].Name
	}
	return out
}

// TieBreaker returns the effective tie-breaker field.
func (p *Paginator) TieBreaker() string {
	return p.tieBreaker
}

// Relevance reports whether pages are ordered by score. Scores cannot be
// range-filtered, so relevance pages are bounded with search_after instead,
// and a Before bound always fetches backwards.
func (p *Paginator) Relevance() bool {
	return p.spec[0].Name == ScoreField
}

// Spec returns the effective sort order.
func (p *Paginator) Spec() sortorder.Spec {
	return slices.Clone(p.spec)
}

// After bounds the page to documents sorting strictly after the position.
func (p *Paginator) After(primary, tieBreaker any) *Paginator {
	p.bound = &bound{side: sideAfter, cursor: cursor.New(primary, tieBreaker)}
	return p
}

// Before bounds the page to documents sorting strictly before the position.
func (p *Paginator) Before(primary, tieBreaker any) *Paginator {
	p.bound = &bound{side: sideBefore, cursor: cursor.New(primary, tieBreaker)}
	return p
}

// First returns the first n documents in the declared order. On relevance
// order with a Before bound it behaves like Last.
func (p *Paginator) First(n int) *querydoc.Document {
	if p.Relevance() && p.bound != nil && p.bound.side == sideBefore {
		return p.Last(n)
	}
	return p.page(n, p.spec)
}

// Last returns the last n documents: the bound is unchanged but every sort
// direction is inverted. Callers reverse the returned hits.
func (p *Paginator) Last(n int) *querydoc.Document {
	return p.page(n, p.spec.Inverted())
}

func (p *Paginator) page(n int, order sortorder.Spec) *querydoc.Document {
	doc := querydoc.New()
	if p.base != nil {
		doc = p.base.Clone()
	}
	switch {
	case p.bound != nil && p.Relevance():
		doc.SearchAfter = []any{p.bound.cursor.Primary, p.bound.cursor.TieBreaker}
	case p.bound != nil:
		doc.AddFilter(p.boundClause())
		// The vector clause must see the same bound as the keyword query.
		filters.ByKNN(doc, true)
	}
	if p.Relevance() {
		doc.TrackScores = true
	}
	doc.Sort = order.Clauses()
	doc.SetSize(n)
	return doc
}

// boundClause builds
//
//	range(F op p) OR (term(F == p) AND range(T op t)) [OR NOT exists(F)]
//
// with the trailing disjunct only for after-bounds on nullable fields, or
// NOT exists(F) AND range(T op t) when p is null.
func (p *Paginator) boundClause() clause.Clause {
	primary := p.spec[0]
	tie := p.tieField()
	c := p.bound.cursor

	tieRange := clause.Range(tie.Name, operator(tie.Direction, p.bound.side), c.TieBreaker)

	if c.IsPrimaryNull() {
		return clause.BoolOf(&clause.Bool{
			Must:    []clause.Clause{tieRange},
			MustNot: []clause.Clause{clause.Exists(primary.Name)},
		})
	}

	should := []clause.Clause{
		clause.Range(primary.Name, operator(primary.Direction, p.bound.side), c.Primary),
		clause.BoolOf(&clause.Bool{Must: []clause.Clause{
			clause.Term(primary.Name, c.Primary),
			tieRange,
		}}),
	}
	if p.bound.side == sideAfter && primary.Nullable {
		should = append(should, clause.MustNotExist(primary.Name))
	}
	return clause.BoolOf(&clause.Bool{Should: should})
}

func (p *Paginator) tieField() sortorder.Field {
	for _, f := range p.spec[1:] {
		if f.Name == p.tieBreaker {
			return f
		}
	}
	return p.spec[len(p.spec)-1]
}

// operator is gt for asc-after and desc-before, lt for asc-before and desc-after.
func operator(dir sortorder.Direction, s side) string {
	if (dir == sortorder.Asc) == (s == sideAfter) {
		return "gt"
	}
	return "lt"
}

// CursorFor rebuilds a cursor from a hit's sort values, mapping sentinels back
// to null. It reports false when the values do not cover the sort order.
func (p *Paginator) CursorFor(sortValues []any) (cursor.Cursor, bool) {
	if len(sortValues) == 0 {
		return cursor.Cursor{}, false
	}

	tieIdx := slices.IndexFunc(p.spec, func(f sortorder.Field) bool { return f.Name == p.tieBreaker })
	if tieIdx <= 0 || tieIdx >= len(sortValues) {
		tieIdx = len(sortValues) - 1
	}

	decoded := make([]any, len(sortValues))
	for i, v := range sortValues {
		decoded[i] = DecodeSortValue(v)
	}
	if decoded[tieIdx] == nil {
		return cursor.Cursor{}, false
	}
	return cursor.New(decoded[0], decoded[tieIdx]), true
}

// DecodeSortValue maps the max and min sentinels to nil and returns any other
// value unchanged.
func DecodeSortValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return sentinelOr(n, v)
		}
		if f, err := val.Float64(); err == nil && isSentinelFloat(f) {
			return nil
		}
	case int64:
		return sentinelOr(val, v)
	case int:
		return sentinelOr(int64(val), v)
	case float64:
		if isSentinelFloat(val) {
			return nil
		}
	case string:
		if val == strconv.FormatInt(MaxSentinel, 10) || val == strconv.FormatInt(MinSentinel, 10) {
			return nil
		}
	}
	return v
}

func sentinelOr(n int64, v any) any {
	if n == MaxSentinel || n == MinSentinel {
		return nil
	}
	return v
}

func isSentinelFloat(f float64) bool {
	return f == float64(MaxSentinel) || f == float64(MinSentinel)
}

// ReversePage restores the declared order of hits fetched with Last.
func ReversePage[T any](hits []T) []T {
	slices.Reverse(hits)
	return hits
}
