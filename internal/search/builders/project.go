package builders

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DocTypeProject is the document type of projects.
const DocTypeProject = "project"

var projectFields = []string{"name^10", "name_with_namespace^2", "path_with_namespace", "path^9", "description"}

// ProjectOptions are the options of Project.
type ProjectOptions struct {
	Common

	VisibilityLevels []int                        `json:"visibility_levels,omitempty"`
	Authorization    filters.AuthorizationOptions `json:"authorization"`
	CreatedAt        filters.DateRange            `json:"created_at"`
	UpdatedAt        filters.DateRange            `json:"updated_at"`
}

// Project builds the project search document.
func Project(ctx context.Context, deps Deps, opts ProjectOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeProject, 0, projectFields); err != nil {
		return nil, err
	}

	auth := opts.Authorization
	auth.NoJoinProject = true
	auth.ProjectIDField = "id"
	auth.PublicAndInternal = true

	filters.ByProjectAuthorization(doc, c.Scope, auth)
	filters.ByVisibilityLevels(doc, opts.VisibilityLevels)
	if err := archived(doc, c); err != nil {
		return nil, err
	}
	filters.ByCreatedAt(doc, opts.CreatedAt)
	filters.ByUpdatedAt(doc, opts.UpdatedAt)

	vectors(ctx, doc, deps, c)
	sortBy(doc, c, DocTypeProject)
	return doc, nil
}
