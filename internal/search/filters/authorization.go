package filters

import (
	"strconv"

	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// AuthorizationOptions controls the project and group authorization filters.
type AuthorizationOptions struct {
	// Features restrict projects to those where every listed feature is readable.
	Features []string `json:"features,omitempty"`
	// FeatureProjectIDs narrows membership per feature; missing features use Scope.ProjectIDs.
	FeatureProjectIDs map[string][]int64 `json:"feature_project_ids,omitempty"`
	// NoJoinProject filters child documents directly instead of through the project parent.
	NoJoinProject bool `json:"no_join_project,omitempty"`
	// ProjectIDField overrides the field membership ids are matched against.
	ProjectIDField string `json:"project_id_field,omitempty"`
	// PublicAndInternal also admits public projects and, for non-external users, internal ones.
	PublicAndInternal  bool    `json:"public_and_internal,omitempty"`
	ExcludedProjectIDs []int64 `json:"excluded_project_ids,omitempty"`
	// MemberAncestries are traversal id prefixes of groups the principal belongs to.
	MemberAncestries []string `json:"member_ancestries,omitempty"`
}

// ByProjectAuthorization keeps documents of projects the principal may read.
// Group-scoped searches are also confined to the groups' traversal prefixes.
func ByProjectAuthorization(doc *querydoc.Document, scope Scope, opts AuthorizationOptions) {
	restrictToGroups(doc, scope)

	conditions := projectMembership(scope, opts)
	if opts.PublicAndInternal {
		readAll := authz.CanReadAll(scope.Principal)
		if scope.Principal != nil && !scope.Principal.IsExternal() {
			conditions = append(conditions, projectVisibility(VisibilityInternal, opts.Features, readAll)...)
		}
		conditions = append(conditions, projectVisibility(VisibilityPublic, opts.Features, readAll)...)
	}

	if opts.NoJoinProject {
		doc.AddFilter(clause.AnyOf(conditions...))
	} else {
		doc.AddFilter(clause.Clause{"has_parent": map[string]any{
			"parent_type": "project",
			"query":       map[string]any{"bool": &clause.Bool{Should: conditions}},
		}})
	}

	if len(opts.ExcludedProjectIDs) > 0 {
		doc.AddMustNot(clause.NamedTerms(name("reject_projects"), "project_id", opts.ExcludedProjectIDs))
	}
}

func projectMembership(scope Scope, opts AuthorizationOptions) []clause.Clause {
	key := opts.ProjectIDField
	if key == "" {
		key = "id"
		if opts.NoJoinProject {
			key = "project_id"
		}
	}

	membership := func(ids []int64) clause.Clause {
		if scope.anyProject() {
			return clause.NamedTerm("visibility_level", name("project", "any"), VisibilityPrivate)
		}
		if ids == nil {
			ids = []int64{}
		}
		return clause.NamedTerms(name("project", "membership", "id"), key, ids)
	}

	if len(opts.Features) == 0 {
		return []clause.Clause{membership(scope.ProjectIDs)}
	}

	out := make([]clause.Clause, 0, len(opts.Features))
	for _, feature := range opts.Features {
		ids, ok := opts.FeatureProjectIDs[feature]
		if !ok {
			ids = scope.ProjectIDs
		}
		limit := clause.NamedTerms(name("project", "membership", feature, "enabled_or_private"),
			feature+"_access_level", []int{AccessEnabled, AccessPrivate})
		out = append(out, clause.BoolOf(&clause.Bool{Filter: []clause.Clause{membership(ids), limit}}))
	}
	return out
}

func projectVisibility(visibility int, features []string, includeMembersOnly bool) []clause.Clause {
	vis := strconv.Itoa(visibility)
	condition := clause.NamedTerm("visibility_level", name("project", "visibility", vis), visibility)
	if len(features) == 0 {
		return []clause.Clause{condition}
	}

	out := make([]clause.Clause, 0, len(features))
	for _, feature := range features {
		field := feature + "_access_level"
		var limit clause.Clause
		if includeMembersOnly {
			limit = clause.NamedTerms(name("project", "visibility", vis, feature, "access_level", "enabled_or_private"),
				field, []int{AccessEnabled, AccessPrivate})
		} else {
			limit = clause.NamedTerm(field, name("project", "visibility", vis, feature, "access_level", "enabled"), AccessEnabled)
		}
		out = append(out, clause.BoolOf(&clause.Bool{Filter: []clause.Clause{condition, limit}}))
	}
	return out
}

// ByGroupLevelAuthorization keeps group-owned documents of public groups, of
// internal groups for non-external users, and of groups the principal belongs to.
func ByGroupLevelAuthorization(doc *querydoc.Document, scope Scope, opts AuthorizationOptions) {
	restrictToGroups(doc, scope)
	if authz.CanReadAll(scope.Principal) {
		return
	}

	should := []clause.Clause{
		clause.NamedTerm("namespace_visibility_level", name("namespace", "visibility", "public"), VisibilityPublic),
	}
	if scope.Principal != nil && !scope.Principal.IsExternal() {
		should = append(should,
			clause.NamedTerm("namespace_visibility_level", name("namespace", "visibility", "internal"), VisibilityInternal))
	}
	if scope.Principal != nil {
		for _, a := range opts.MemberAncestries {
			should = append(should, clause.Prefix("traversal_ids", name("namespace", "membership"), a))
		}
	}
	doc.AddFilter(clause.AnyOf(should...))
}
