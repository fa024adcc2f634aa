package filters

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// LabelScope is where a label name is resolved.
type LabelScope struct {
	Level      level.Level
	ProjectIDs []int64
	GroupIDs   []int64
}

// LabelResolver maps a label name to the ids it has within a scope.
// A name may resolve to many ids across projects and groups.
type LabelResolver interface {
	LabelIDs(ctx context.Context, name string, scope LabelScope) ([]int64, error)
}

// LabelOptions controls the label filters.
type LabelOptions struct {
	Names    []string
	Scope    Scope
	Resolver LabelResolver
}

// ByLabelNames requires every named label (any of a name's resolved ids).
// The search level is required once names are given.
func ByLabelNames(ctx context.Context, doc *querydoc.Document, opts LabelOptions) error {
	groups, err := resolveLabels(ctx, opts)
	if err != nil || groups == nil {
		return err
	}

	must := make([]clause.Clause, 0, len(groups))
	for _, ids := range groups {
		must = append(must, clause.NamedTerms(name("label_ids"), "label_ids", ids))
	}
	doc.AddFilter(clause.BoolOf(&clause.Bool{Must: must}))
	return nil
}

// ByNotLabelNames excludes documents carrying any of the named labels.
func ByNotLabelNames(ctx context.Context, doc *querydoc.Document, opts LabelOptions) error {
	groups, err := resolveLabels(ctx, opts)
	if err != nil || groups == nil {
		return err
	}

	mustNot := make([]clause.Clause, 0, len(groups))
	for _, ids := range groups {
		if len(ids) == 0 {
			continue
		}
		mustNot = append(mustNot, clause.NamedTerms(name("not_label_ids"), "label_ids", ids))
	}
	if len(mustNot) == 0 {
		return nil
	}
	doc.AddFilter(clause.BoolOf(&clause.Bool{MustNot: mustNot}))
	return nil
}

// resolveLabels returns one id list per name, nil when no names are given.
func resolveLabels(ctx context.Context, opts LabelOptions) ([][]int64, error) {
	if len(opts.Names) == 0 {
		return nil, nil
	}
	if !opts.Scope.Level.IsSet() {
		return nil, domain.MissingOption("search_level")
	}
	if !opts.Scope.Level.IsValid() {
		return nil, domain.InvalidOption("search_level", "must be global, group or project, got "+string(opts.Scope.Level))
	}
	if opts.Resolver == nil {
		return nil, domain.MissingOption("label_resolver")
	}

	scope := LabelScope{
		Level:      opts.Scope.Level,
		ProjectIDs: opts.Scope.ProjectIDs,
		GroupIDs:   opts.Scope.GroupIDs,
	}
	out := make([][]int64, 0, len(opts.Names))
	for _, n := range opts.Names {
		ids, err := opts.Resolver.LabelIDs(ctx, n, scope)
		if err != nil {
			return nil, fmt.Errorf("resolve label %q: %w", n, err)
		}
		if ids == nil {
			ids = []int64{}
		}
		out = append(out, ids)
	}
	return out, nil
}
