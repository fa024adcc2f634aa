package builders

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	"github.com/kailas-cloud/searchkit/internal/search/sorts"
)

// Entity names accepted by the registry.
const (
	EntityIssue         = "issues"
	EntityMergeRequest  = "merge_requests"
	EntityMilestone     = "milestones"
	EntityProject       = "projects"
	EntityWorkItem      = "work_items"
	EntityWorkItemGroup = "epics"
)

// Env carries server-side settings and the authenticated principal into a build.
type Env struct {
	Principal        authz.Principal
	TextMode         queries.TextMode
	KNN              queries.KNNOptions
	VectorsSupported bool
}

func (e Env) apply(c *Common) {
	c.Scope.Principal = e.Principal
	c.TextMode = e.TextMode
	c.KNN = e.KNN
	c.VectorsSupported = e.VectorsSupported
}

// Built is a query document together with the sort it was built with.
type Built struct {
	Entity    string
	DocType   string
	Doc       *querydoc.Document
	Sort      sortorder.Spec
	CountOnly bool
}

type buildFunc func(ctx context.Context, deps Deps, env Env, body []byte) (Built, error)

type options[T any] interface {
	*T
	base() *Common
}

func entry[T any, P options[T]](
	entity, docType string,
	build func(context.Context, Deps, T) (*querydoc.Document, error),
) buildFunc {
	return func(ctx context.Context, deps Deps, env Env, body []byte) (Built, error) {
		var opts T
		if len(body) > 0 {
			if err := json.Unmarshal(body, &opts); err != nil {
				return Built{}, domain.InvalidOption("body", err.Error())
			}
		}
		c := P(&opts).base()
		env.apply(c)

		doc, err := build(ctx, deps, opts)
		if err != nil {
			return Built{}, fmt.Errorf("build %s query: %w", entity, err)
		}
		return Built{
			Entity:    entity,
			DocType:   docType,
			Doc:       doc,
			Sort:      sorts.Lookup(docType, c.OrderBy, c.Sort),
			CountOnly: c.CountOnly,
		}, nil
	}
}

// Registry maps entity names to builders.
type Registry struct {
	deps     Deps
	entities map[string]buildFunc
}

// NewRegistry creates a registry of every entity builder.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps: deps,
		entities: map[string]buildFunc{
			EntityIssue:         entry[IssueOptions](EntityIssue, DocTypeIssue, Issue),
			EntityMergeRequest:  entry[MergeRequestOptions](EntityMergeRequest, DocTypeMergeRequest, MergeRequest),
			EntityMilestone:     entry[MilestoneOptions](EntityMilestone, DocTypeMilestone, Milestone),
			EntityProject:       entry[ProjectOptions](EntityProject, DocTypeProject, Project),
			EntityWorkItem:      entry[WorkItemOptions](EntityWorkItem, DocTypeWorkItem, WorkItem),
			EntityWorkItemGroup: entry[WorkItemOptions](EntityWorkItemGroup, DocTypeWorkItem, WorkItemGroup),
		},
	}
}

// Build decodes body into the entity's options and builds its document.
func (r *Registry) Build(ctx context.Context, entity string, env Env, body []byte) (Built, error) {
	build, ok := r.entities[entity]
	if !ok {
		return Built{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, entity)
	}
	return build(ctx, r.deps, env, body)
}

// Entities lists the registered entity names in sorted order.
func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
