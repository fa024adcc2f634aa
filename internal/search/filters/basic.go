package filters

import (
	"slices"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

var validStates = []string{"opened", "closed", "merged", "locked"}

// ByType restricts the document type. docType is required.
func ByType(doc *querydoc.Document, docType string) error {
	if docType == "" {
		return domain.MissingOption("doc_type")
	}
	doc.AddFilter(clause.NamedTerm("type", name("doc", "is_a", docType), docType))
	return nil
}

// ArchivedOptions controls ByArchived.
type ArchivedOptions struct {
	Level           level.Level
	IncludeArchived bool
}

// ByArchived hides documents of archived projects at group and global level.
// The search level is required.
func ByArchived(doc *querydoc.Document, opts ArchivedOptions) error {
	if !opts.Level.IsSet() {
		return domain.MissingOption("search_level")
	}
	if !opts.Level.IsValid() {
		return domain.InvalidOption("search_level", "must be global, group or project, got "+string(opts.Level))
	}
	if opts.Level == level.Project || opts.IncludeArchived {
		return nil
	}

	doc.AddFilter(clause.NamedBool(name("non_archived"), &clause.Bool{
		Should: []clause.Clause{
			clause.BoolOf(&clause.Bool{Filter: []clause.Clause{clause.NamedTerm("archived", "", false)}}),
			clause.MustNotExist("archived"),
		},
	}))
	return nil
}

// ByState keeps documents in the given state. "all" and unknown states are ignored.
func ByState(doc *querydoc.Document, state string) {
	if !slices.Contains(validStates, state) {
		return
	}
	doc.AddFilter(clause.NamedTerm("state", name("state"), state))
}

// PairOptions is an include/exclude pair for a keyword field.
type PairOptions struct {
	Value    string `json:"value,omitempty"`
	NotValue string `json:"not_value,omitempty"`
}

// BySourceBranch filters merge requests on their source branch.
func BySourceBranch(doc *querydoc.Document, opts PairOptions) {
	byPair(doc, "source_branch", opts)
}

// ByTargetBranch filters merge requests on their target branch.
func ByTargetBranch(doc *querydoc.Document, opts PairOptions) {
	byPair(doc, "target_branch", opts)
}

func byPair(doc *querydoc.Document, field string, opts PairOptions) {
	var include, exclude clause.Clause
	if opts.Value != "" {
		include = clause.NamedTerm(field, name(field), opts.Value)
	}
	if opts.NotValue != "" {
		exclude = clause.NamedTerm(field, name("not_"+field), opts.NotValue)
	}
	addPair(doc, include, exclude)
}

// IDPairOptions is an include/exclude pair for an id field.
type IDPairOptions struct {
	ID    *int64 `json:"id,omitempty"`
	NotID *int64 `json:"not_id,omitempty"`
}

// ByAuthor filters on the author id.
func ByAuthor(doc *querydoc.Document, opts IDPairOptions) {
	var include, exclude clause.Clause
	if opts.ID != nil {
		include = clause.NamedTerm("author_id", name("author"), *opts.ID)
	}
	if opts.NotID != nil {
		exclude = clause.NamedTerm("author_id", name("not_author"), *opts.NotID)
	}
	addPair(doc, include, exclude)
}

// IDListPairOptions is an include/exclude pair of id lists.
type IDListPairOptions struct {
	IDs    []int64 `json:"ids,omitempty"`
	NotIDs []int64 `json:"not_ids,omitempty"`
}

// ByWorkItemType filters on work item type ids.
func ByWorkItemType(doc *querydoc.Document, opts IDListPairOptions) {
	var include, exclude clause.Clause
	if len(opts.IDs) > 0 {
		include = clause.NamedTerms(name("work_item_type"), "work_item_type_id", opts.IDs)
	}
	if len(opts.NotIDs) > 0 {
		exclude = clause.NamedTerms(name("not_work_item_type"), "work_item_type_id", opts.NotIDs)
	}
	addPair(doc, include, exclude)
}

// addPair appends include OR NOT exclude, skipping the missing side.
func addPair(doc *querydoc.Document, include, exclude clause.Clause) {
	var should []clause.Clause
	if include != nil {
		should = append(should, include)
	}
	if exclude != nil {
		should = append(should, clause.BoolOf(&clause.Bool{MustNot: []clause.Clause{exclude}}))
	}
	if len(should) == 0 {
		return
	}
	doc.AddFilter(clause.AnyOf(should...))
}

// ByIIDs restricts to the given internal ids.
func ByIIDs(doc *querydoc.Document, iids []int64) {
	if len(iids) == 0 {
		return
	}
	doc.AddFilter(clause.NamedTerms(name("iids"), "iid", iids))
}

// ByProjectIDs restricts to documents of the given projects.
func ByProjectIDs(doc *querydoc.Document, ids []int64) {
	if len(ids) == 0 {
		return
	}
	doc.AddFilter(clause.NamedTerms(name("project_ids"), "project_id", ids))
}

// ByNotHidden hides documents of banned authors from everyone but instance admins.
func ByNotHidden(doc *querydoc.Document, p authz.Principal) {
	if authz.CanAdminAll(p) {
		return
	}
	doc.AddFilter(clause.NamedTerm("hidden", name("not_hidden"), false))
}

// ByDraft filters merge requests on their draft flag.
func ByDraft(doc *querydoc.Document, draft *bool) {
	if draft == nil {
		return
	}
	doc.AddFilter(clause.NamedTerm("draft", name("draft"), *draft))
}

// ByConfidential filters on an explicit confidential flag requested by the caller.
func ByConfidential(doc *querydoc.Document, confidential *bool) {
	if confidential == nil {
		return
	}
	doc.AddFilter(clause.NamedTerm("confidential", name("confidential"), *confidential))
}

// ByVisibilityLevels restricts projects to the given visibility levels.
func ByVisibilityLevels(doc *querydoc.Document, levels []int) {
	if len(levels) == 0 {
		return
	}
	doc.AddFilter(clause.NamedTerms(name("visibility_level"), "visibility_level", levels))
}

// ByNamespaceAncestry keeps documents under any of the given traversal id prefixes.
func ByNamespaceAncestry(doc *querydoc.Document, ancestries []string) {
	if len(ancestries) == 0 {
		return
	}
	should := make([]clause.Clause, 0, len(ancestries))
	for _, a := range ancestries {
		should = append(should, clause.Prefix("traversal_ids", name("namespace", "ancestry"), a))
	}
	doc.AddFilter(clause.AnyOf(should...))
}

// ByGroupOwned keeps documents owned by a group rather than by a project.
func ByGroupOwned(doc *querydoc.Document) {
	doc.AddFilter(clause.NamedBool(name("group_owned"), &clause.Bool{
		MustNot: []clause.Clause{clause.Exists("project_id")},
	}))
}

// BySearchLevel restricts project-level searches to the scoped projects. Group
// subtrees are confined by the authorization filters.
func BySearchLevel(doc *querydoc.Document, scope Scope) {
	if scope.Level == level.Project && len(scope.ProjectIDs) > 0 {
		doc.AddFilter(clause.NamedTerms(name("level", "project"), "project_id", scope.ProjectIDs))
	}
}

// ByMilestoneState filters milestones on active/closed.
func ByMilestoneState(doc *querydoc.Document, state string) {
	if state != "active" && state != "closed" {
		return
	}
	doc.AddFilter(clause.NamedTerm("state", name("milestone", "state"), state))
}
