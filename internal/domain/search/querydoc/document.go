// Package querydoc holds the query document accumulator threaded through
// filter, query and pagination functions.
package querydoc

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
)

// Document is an owned, mutable query document. It must not be shared across
// concurrent requests; call Build to obtain the wire form.
type Document struct {
	Bool        *clause.Bool
	Sort        []clause.Clause
	Size        *int
	Highlight   clause.Clause
	KNN         clause.Clause
	TrackScores bool
	Source      []string
	// SearchAfter holds the sort values of the last hit of the previous page.
	SearchAfter []any
}

// New creates an empty document with an initialized bool clause.
func New() *Document {
	return &Document{Bool: clause.NewBool()}
}

// AddFilter appends non-scoring clauses.
func (d *Document) AddFilter(c ...clause.Clause) { d.Bool.Filter = append(d.Bool.Filter, c...) }

// AddMust appends scoring conjunctive clauses.
func (d *Document) AddMust(c ...clause.Clause) { d.Bool.Must = append(d.Bool.Must, c...) }

// AddMustNot appends negated clauses.
func (d *Document) AddMustNot(c ...clause.Clause) { d.Bool.MustNot = append(d.Bool.MustNot, c...) }

// AddShould appends disjunctive clauses.
func (d *Document) AddShould(c ...clause.Clause) { d.Bool.Should = append(d.Bool.Should, c...) }

// SetSize sets the page size.
func (d *Document) SetSize(n int) { d.Size = &n }

// Build returns the wire-format document.
func (d *Document) Build() map[string]any {
	b := d.Bool
	if b == nil {
		b = clause.NewBool()
	}

	out := map[string]any{
		"query": map[string]any{"bool": b.ToDocument()},
	}
	if len(d.Sort) > 0 {
		out["sort"] = d.Sort
	}
	if d.Size != nil {
		out["size"] = *d.Size
	}
	if len(d.Highlight) > 0 {
		out["highlight"] = d.Highlight
	}
	if len(d.KNN) > 0 {
		out["knn"] = d.KNN
	}
	if d.TrackScores {
		out["track_scores"] = true
	}
	if len(d.Source) > 0 {
		out["_source"] = d.Source
	}
	if len(d.SearchAfter) > 0 {
		out["search_after"] = d.SearchAfter
	}
	return out
}

// MarshalJSON serializes the built document.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Build()) //nolint:wrapcheck // plain delegation
}

// Clone copies the document so that appending to the copy leaves d untouched.
// Individual clauses are shared.
func (d *Document) Clone() *Document {
	c := &Document{
		Bool:        clause.NewBool(),
		Sort:        slices.Clone(d.Sort),
		Highlight:   maps.Clone(d.Highlight),
		KNN:         maps.Clone(d.KNN),
		TrackScores: d.TrackScores,
		Source:      slices.Clone(d.Source),
		SearchAfter: slices.Clone(d.SearchAfter),
	}
	if d.Bool != nil {
		c.Bool.Must = append(c.Bool.Must, d.Bool.Must...)
		c.Bool.MustNot = append(c.Bool.MustNot, d.Bool.MustNot...)
		c.Bool.Should = append(c.Bool.Should, d.Bool.Should...)
		c.Bool.Filter = append(c.Bool.Filter, d.Bool.Filter...)
		if d.Bool.MinimumShouldMatch != nil {
			n := *d.Bool.MinimumShouldMatch
			c.Bool.MinimumShouldMatch = &n
		}
	}
	if d.Size != nil {
		c.SetSize(*d.Size)
	}
	return c
}

// Equal compares the wire forms of two documents.
func Equal(a, b *Document) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}
