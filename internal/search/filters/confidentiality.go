package filters

import (
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// ConfidentialityOptions lists where the principal may read confidential
// documents (reporter access or higher).
type ConfidentialityOptions struct {
	AuthorizedProjectIDs []int64 `json:"authorized_project_ids,omitempty"`
	AuthorizedGroupIDs   []int64 `json:"authorized_group_ids,omitempty"`
}

// ByConfidentiality hides confidential documents unless the principal authored
// them, is assigned to them, or may read confidential documents of their project.
func ByConfidentiality(doc *querydoc.Document, scope Scope, opts ConfidentialityOptions) {
	if authz.CanReadAll(scope.Principal) {
		return
	}
	if !scope.anyProject() && len(scope.ProjectIDs) > 0 && sameIDs(scope.ProjectIDs, opts.AuthorizedProjectIDs) {
		return
	}

	var memberships []clause.Clause
	if len(opts.AuthorizedProjectIDs) > 0 {
		memberships = append(memberships,
			clause.NamedTerms(name("confidential", "project", "membership", "id"), "project_id", opts.AuthorizedProjectIDs))
	}
	addConfidentiality(doc, scope.Principal, []string{}, memberships)
}

// ByGroupLevelConfidentiality is ByConfidentiality for documents owned by groups.
func ByGroupLevelConfidentiality(doc *querydoc.Document, scope Scope, opts ConfidentialityOptions) {
	if authz.CanReadAll(scope.Principal) {
		return
	}

	prefix := []string{"confidentiality", "groups"}
	var memberships []clause.Clause
	if len(opts.AuthorizedGroupIDs) > 0 {
		memberships = append(memberships, clause.NamedTerms(
			name(append(prefix, "confidential", "namespace", "membership", "id")...), "namespace_id", opts.AuthorizedGroupIDs))
	}
	if len(opts.AuthorizedProjectIDs) > 0 {
		memberships = append(memberships, clause.NamedTerms(
			name(append(prefix, "confidential", "project", "membership", "id")...), "project_id", opts.AuthorizedProjectIDs))
	}
	addConfidentiality(doc, scope.Principal, prefix, memberships)
}

func addConfidentiality(doc *querydoc.Document, p authz.Principal, prefix []string, memberships []clause.Clause) {
	named := func(parts ...string) string {
		return name(append(append([]string{}, prefix...), parts...)...)
	}

	nonConfidential := clause.NamedTerm("confidential", named("non_confidential"), false)
	if p == nil {
		doc.AddFilter(nonConfidential)
		return
	}

	visibleTo := []clause.Clause{
		clause.NamedTerm("author_id", named("confidential", "as_author"), p.ID()),
		clause.NamedTerm("assignee_id", named("confidential", "as_assignee"), p.ID()),
	}
	visibleTo = append(visibleTo, memberships...)

	confidential := clause.BoolOf(&clause.Bool{
		Must: []clause.Clause{
			clause.NamedTerm("confidential", named("confidential"), true),
			clause.BoolOf(&clause.Bool{Should: visibleTo}),
		},
	})
	doc.AddFilter(clause.BoolOf(&clause.Bool{Should: []clause.Clause{nonConfidential, confidential}}))
}

func sameIDs(a, b []int64) bool {
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	other := make(map[int64]struct{}, len(b))
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
		other[id] = struct{}{}
	}
	return len(set) == len(other)
}
