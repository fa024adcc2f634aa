// Package queries builds the scoring part of query documents: full-text
// matching, highlighting, vector similarity and identifier lookups.
package queries

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// TextMode selects how free text is matched.
type TextMode string

const (
	// ModeMultiMatch matches with an or/and/phrase disjunction of multi_match clauses.
	ModeMultiMatch TextMode = "multi_match"
	// ModeSimpleQueryString matches with a single simple_query_string clause.
	ModeSimpleQueryString TextMode = "simple_query_string"
)

// ParseTextMode parses a text mode; empty selects ModeMultiMatch.
func ParseTextMode(s string) (TextMode, error) {
	switch m := TextMode(s); m {
	case "":
		return ModeMultiMatch, nil
	case ModeMultiMatch, ModeSimpleQueryString:
		return m, nil
	default:
		return "", domain.InvalidOption("text_mode", fmt.Sprintf("must be %q or %q, got %q", ModeMultiMatch, ModeSimpleQueryString, s))
	}
}

// Highlight markers wrapped around matched fragments.
const (
	PreTag  = "searchhighlight→"
	PostTag = "←searchhighlight"
)

var advancedSyntax = regexp.MustCompile(`[+\-|*()~"\\]`)

// UsesAdvancedSyntax reports whether query contains simple_query_string operators.
func UsesAdvancedSyntax(query string) bool {
	return advancedSyntax.MatchString(query)
}

// FullTextOptions controls ByFullText.
type FullTextOptions struct {
	Query string
	// Fields may carry boosts ("title^2").
	Fields []string
	// Entity prefixes clause names ("issue:multi_match:or:search_terms").
	Entity    string
	Mode      TextMode
	CountOnly bool
}

// ByFullText matches the query text against fields. An empty query matches
// everything and keeps scores tracked.
func ByFullText(doc *querydoc.Document, opts FullTextOptions) {
	fields := opts.Fields
	if opts.CountOnly {
		fields = RemoveFieldBoosts(fields)
	}

	switch {
	case strings.TrimSpace(opts.Query) == "":
		doc.AddMust(clause.MatchAll())
		doc.TrackScores = true
	case opts.Mode == ModeSimpleQueryString || UsesAdvancedSyntax(opts.Query):
		addText(doc, opts.CountOnly, simpleQueryString(opts.Entity, fields, opts.Query))
	default:
		addText(doc, opts.CountOnly, clause.AnyOf(
			multiMatch(opts.Entity, fields, opts.Query, "or"),
			multiMatch(opts.Entity, fields, opts.Query, "and"),
			multiMatchPhrase(opts.Entity, fields, opts.Query),
		))
	}

	if !opts.CountOnly {
		doc.Highlight = Highlight(fields)
	}
}

// addText puts the text clause in filter when only a count is needed.
func addText(doc *querydoc.Document, countOnly bool, c clause.Clause) {
	if countOnly {
		doc.AddFilter(c)
		return
	}
	doc.AddMust(c)
}

func simpleQueryString(entity string, fields []string, query string) clause.Clause {
	return clause.Clause{"simple_query_string": map[string]any{
		"_name":            clause.Name(entity, "match", "search_terms"),
		"fields":           fields,
		"query":            query,
		"lenient":          true,
		"default_operator": "and",
	}}
}

func multiMatch(entity string, fields []string, query, operator string) clause.Clause {
	return clause.Clause{"multi_match": map[string]any{
		"_name":    clause.Name(entity, "multi_match", operator, "search_terms"),
		"fields":   fields,
		"query":    query,
		"operator": operator,
		"lenient":  true,
	}}
}

func multiMatchPhrase(entity string, fields []string, query string) clause.Clause {
	return clause.Clause{"multi_match": map[string]any{
		"_name":   clause.Name(entity, "multi_match_phrase", "search_terms"),
		"type":    "phrase",
		"fields":  fields,
		"query":   query,
		"lenient": true,
	}}
}

// RemoveFieldBoosts strips "^N" weights from field names.
func RemoveFieldBoosts(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i], _, _ = strings.Cut(f, "^")
	}
	return out
}

// Highlight returns a whole-field highlight section for fields.
func Highlight(fields []string) clause.Clause {
	es := make(map[string]any, len(fields))
	for _, f := range RemoveFieldBoosts(fields) {
		es[f] = map[string]any{}
	}
	return clause.Clause{
		"pre_tags":            []string{PreTag},
		"post_tags":           []string{PostTag},
		"number_of_fragments": 0,
		"fields":              es,
	}
}
