package builders

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DocTypeMilestone is the document type of milestones.
const DocTypeMilestone = "milestone"

var milestoneFields = []string{"title^2", "description"}

// MilestoneOptions are the options of Milestone.
type MilestoneOptions struct {
	Common

	State         string                       `json:"state,omitempty"`
	Authorization filters.AuthorizationOptions `json:"authorization"`
	DueDate       filters.DateRange            `json:"due_date"`
	UpdatedAt     filters.DateRange            `json:"updated_at"`
}

// Milestone builds the milestone search document. Milestones are visible
// when either issues or merge requests of their project are.
func Milestone(_ context.Context, _ Deps, opts MilestoneOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeMilestone, '%', milestoneFields); err != nil {
		return nil, err
	}

	auth := opts.Authorization
	auth.Features = []string{filters.FeatureIssues, filters.FeatureMergeRequests}
	auth.NoJoinProject = true
	auth.PublicAndInternal = true

	filters.BySearchLevel(doc, c.Scope)
	filters.ByProjectAuthorization(doc, c.Scope, auth)
	if err := archived(doc, c); err != nil {
		return nil, err
	}
	filters.ByMilestoneState(doc, opts.State)
	filters.ByDueDate(doc, opts.DueDate)
	filters.ByUpdatedAt(doc, opts.UpdatedAt)

	sortBy(doc, c, DocTypeMilestone)
	return doc, nil
}
