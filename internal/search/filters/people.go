package filters

import (
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// MilestoneOptions filters on milestone titles.
type MilestoneOptions struct {
	Titles    []string `json:"titles,omitempty"`
	NotTitles []string `json:"not_titles,omitempty"`
	None      bool     `json:"none,omitempty"`
	Any       bool     `json:"any,omitempty"`
}

// ByMilestone filters on the milestone title.
func ByMilestone(doc *querydoc.Document, opts MilestoneOptions) {
	const field = "milestone_title"
	if len(opts.Titles) > 0 {
		doc.AddFilter(clause.NamedTerms(name("milestone_title"), field, opts.Titles))
	}
	if len(opts.NotTitles) > 0 {
		doc.AddMustNot(clause.NamedTerms(name("not_milestone_title"), field, opts.NotTitles))
	}
	switch {
	case opts.None:
		doc.AddMustNot(clause.Exists(field))
	case opts.Any:
		doc.AddFilter(clause.Exists(field))
	}
}

// PeopleOptions filters on a multi-valued user id field.
// IDs must all match, OrIDs need one match, NotIDs must not match.
type PeopleOptions struct {
	IDs    []int64 `json:"ids,omitempty"`
	OrIDs  []int64 `json:"or_ids,omitempty"`
	NotIDs []int64 `json:"not_ids,omitempty"`
	None   bool    `json:"none,omitempty"`
	Any    bool    `json:"any,omitempty"`
}

// ByAssignees filters on assignees.
func ByAssignees(doc *querydoc.Document, opts PeopleOptions) {
	byPeople(doc, "assignee_id", "assignees", opts)
}

// ByReviewers filters merge requests on reviewers.
func ByReviewers(doc *querydoc.Document, opts PeopleOptions) {
	byPeople(doc, "reviewer_ids", "reviewers", opts)
}

func byPeople(doc *querydoc.Document, field, purpose string, opts PeopleOptions) {
	for _, id := range opts.IDs {
		doc.AddFilter(clause.NamedTerm(field, name(purpose), id))
	}
	if len(opts.OrIDs) > 0 {
		doc.AddFilter(clause.NamedTerms(name("or_"+purpose), field, opts.OrIDs))
	}
	if len(opts.NotIDs) > 0 {
		doc.AddMustNot(clause.NamedTerms(name("not_"+purpose), field, opts.NotIDs))
	}
	switch {
	case opts.None:
		doc.AddMustNot(clause.Exists(field))
	case opts.Any:
		doc.AddFilter(clause.Exists(field))
	}
}

// ValueListOptions filters a single-valued field on allowed and rejected values.
type ValueListOptions[T any] struct {
	In    []T  `json:"in,omitempty"`
	NotIn []T  `json:"not_in,omitempty"`
	None  bool `json:"none,omitempty"`
	Any   bool `json:"any,omitempty"`
}

var healthStatuses = map[string]int{
	"on_track":        1,
	"needs_attention": 2,
	"at_risk":         3,
}

// ByHealthStatus filters on health status names. Unknown names are dropped.
func ByHealthStatus(doc *querydoc.Document, opts ValueListOptions[string]) {
	byValues(doc, "health_status", ValueListOptions[int]{
		In:    healthStatusCodes(opts.In),
		NotIn: healthStatusCodes(opts.NotIn),
		None:  opts.None,
		Any:   opts.Any,
	})
}

func healthStatusCodes(names []string) []int {
	var out []int
	for _, n := range names {
		if code, ok := healthStatuses[n]; ok {
			out = append(out, code)
		}
	}
	return out
}

// ByWeight filters on weight.
func ByWeight(doc *querydoc.Document, opts ValueListOptions[int]) {
	byValues(doc, "weight", opts)
}

func byValues[T any](doc *querydoc.Document, field string, opts ValueListOptions[T]) {
	if len(opts.In) > 0 {
		doc.AddFilter(clause.NamedTerms(name(field), field, opts.In))
	}
	if len(opts.NotIn) > 0 {
		doc.AddMustNot(clause.NamedTerms(name("not_"+field), field, opts.NotIn))
	}
	switch {
	case opts.None:
		doc.AddMustNot(clause.Exists(field))
	case opts.Any:
		doc.AddFilter(clause.Exists(field))
	}
}
