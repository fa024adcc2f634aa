// Package filters appends authorization and entity constraints to a query
// document. Every function mutates the document it is given; when its
// triggering option is absent the document is left untouched.
package filters

import (
	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// Project and namespace visibility levels.
const (
	VisibilityPrivate  = 0
	VisibilityInternal = 10
	VisibilityPublic   = 20
)

// Project feature access levels.
const (
	AccessDisabled = 0
	AccessPrivate  = 10
	AccessEnabled  = 20
	AccessPublic   = 30
)

// Project features that carry an access level.
const (
	FeatureIssues        = "issues"
	FeatureMergeRequests = "merge_requests"
	FeatureRepository    = "repository"
	FeatureWiki          = "wiki"
	FeatureSnippets      = "snippets"
)

// Scope is who is searching and where.
type Scope struct {
	Principal authz.Principal `json:"-"`
	Level     level.Level     `json:"search_level"`
	// ProjectIDs are the projects the search is restricted to. For non-admin
	// "any project" searches the caller passes the principal's authorized projects.
	ProjectIDs []int64 `json:"project_ids,omitempty"`
	AnyProject bool    `json:"any_project,omitempty"`
	GroupIDs   []int64 `json:"group_ids,omitempty"`
	// Ancestries are traversal id prefixes of GroupIDs ("9970-4-").
	Ancestries []string `json:"ancestries,omitempty"`
}

// Validate rejects scopes the authorization filters cannot confine: a group
// level or group ids without the traversal prefixes of those groups.
func (s Scope) Validate() error {
	if s.groupScoped() && len(s.Ancestries) == 0 {
		return domain.MissingOption("ancestries")
	}
	return nil
}

func (s Scope) groupScoped() bool {
	return s.Level == level.Group || len(s.GroupIDs) > 0
}

// restrictToGroups keeps only documents under the scoped groups.
func restrictToGroups(doc *querydoc.Document, s Scope) {
	if s.groupScoped() {
		ByNamespaceAncestry(doc, s.Ancestries)
	}
}

// anyProject reports whether the search spans every project without a membership restriction.
func (s Scope) anyProject() bool {
	return s.AnyProject && authz.CanReadAll(s.Principal)
}

func name(parts ...string) string {
	return clause.Name(append([]string{"filters"}, parts...)...)
}
