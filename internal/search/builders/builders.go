// Package builders composes filters, text queries and sorts into one query
// document per searchable entity. Each builder applies its filters in a fixed
// order so clause names stay stable.
package builders

import (
	"context"
	"regexp"
	"strconv"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	"github.com/kailas-cloud/searchkit/internal/search/sorts"
)

// Deps are the collaborators builders need beyond their options.
type Deps struct {
	Labels  filters.LabelResolver
	Vectors queries.KNNDeps
}

// Common holds the options every entity accepts.
type Common struct {
	Query           string        `json:"query"`
	Scope           filters.Scope `json:"scope"`
	CountOnly       bool          `json:"count_only,omitempty"`
	OrderBy         string        `json:"order_by,omitempty"`
	Sort            string        `json:"sort,omitempty"`
	IncludeArchived bool          `json:"include_archived,omitempty"`
	Hybrid          bool          `json:"hybrid,omitempty"`

	// Set by the server, not by callers.
	TextMode         queries.TextMode   `json:"-"`
	KNN              queries.KNNOptions `json:"-"`
	VectorsSupported bool               `json:"-"`
}

func (c *Common) base() *Common { return c }

// LabelFilter selects documents by label name.
type LabelFilter struct {
	Names    []string `json:"label_names,omitempty"`
	NotNames []string `json:"not_label_names,omitempty"`
}

// text adds the iid lookup when the query is a reference ("#12", "!12"),
// otherwise the full-text match and the type filter.
func text(doc *querydoc.Document, c *Common, docType string, marker byte, fields []string) error {
	if iid, ok := parseReference(c.Query, marker); ok {
		return queries.ByIID(doc, iid, docType) //nolint:wrapcheck // argument errors name their key
	}
	queries.ByFullText(doc, queries.FullTextOptions{
		Query:     c.Query,
		Fields:    fields,
		Entity:    docType,
		Mode:      c.TextMode,
		CountOnly: c.CountOnly,
	})
	return filters.ByType(doc, docType) //nolint:wrapcheck // argument errors name their key
}

var referencePattern = regexp.MustCompile(`^\s*([#!%&])(\d+)\s*$`)

func parseReference(query string, marker byte) (int64, bool) {
	if marker == 0 {
		return 0, false
	}
	m := referencePattern.FindStringSubmatch(query)
	if m == nil || m[1][0] != marker {
		return 0, false
	}
	iid, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return iid, true
}

func archived(doc *querydoc.Document, c *Common) error {
	return filters.ByArchived(doc, filters.ArchivedOptions{ //nolint:wrapcheck // argument errors name their key
		Level:           c.Scope.Level,
		IncludeArchived: c.IncludeArchived,
	})
}

func labels(ctx context.Context, doc *querydoc.Document, deps Deps, c *Common, lf LabelFilter) error {
	if err := filters.ByLabelNames(ctx, doc, filters.LabelOptions{
		Names: lf.Names, Scope: c.Scope, Resolver: deps.Labels,
	}); err != nil {
		return err //nolint:wrapcheck // filters wrap resolver errors
	}
	return filters.ByNotLabelNames(ctx, doc, filters.LabelOptions{ //nolint:wrapcheck // filters wrap resolver errors
		Names: lf.NotNames, Scope: c.Scope, Resolver: deps.Labels,
	})
}

// vectors runs the knn leaf and then constrains it with the filters applied so far.
func vectors(ctx context.Context, doc *querydoc.Document, deps Deps, c *Common) {
	if !c.Hybrid || !c.VectorsSupported || c.CountOnly {
		return
	}
	opts := c.KNN
	opts.Query = c.Query
	if opts.ThrottleKey == "" && c.Scope.Principal != nil {
		opts.ThrottleKey = "user:" + strconv.FormatInt(c.Scope.Principal.ID(), 10)
	}
	queries.ByKNN(ctx, doc, deps.Vectors, opts)
	filters.ByKNN(doc, c.VectorsSupported)
}

func sortBy(doc *querydoc.Document, c *Common, docType string) {
	sorts.SortBy(doc, sorts.Lookup(docType, c.OrderBy, c.Sort), c.CountOnly)
}
