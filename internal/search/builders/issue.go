package builders

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DocTypeIssue is the document type of issues.
const DocTypeIssue = "issue"

var issueFields = []string{"iid^3", "title^2", "description"}

// IssueOptions are the options of Issue.
type IssueOptions struct {
	Common
	LabelFilter

	State           string                           `json:"state,omitempty"`
	Confidential    *bool                            `json:"confidential,omitempty"`
	Confidentiality filters.ConfidentialityOptions   `json:"confidentiality"`
	Authorization   filters.AuthorizationOptions     `json:"authorization"`
	Author          filters.IDPairOptions            `json:"author"`
	Milestone       filters.MilestoneOptions         `json:"milestone"`
	Assignees       filters.PeopleOptions            `json:"assignees"`
	HealthStatus    filters.ValueListOptions[string] `json:"health_status"`
	Weight          filters.ValueListOptions[int]    `json:"weight"`
	CreatedAt       filters.DateRange                `json:"created_at"`
	UpdatedAt       filters.DateRange                `json:"updated_at"`
	ClosedAt        filters.DateRange                `json:"closed_at"`
	DueDate         filters.DateRange                `json:"due_date"`
}

// Issue builds the issue search document.
func Issue(ctx context.Context, deps Deps, opts IssueOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeIssue, '#', issueFields); err != nil {
		return nil, err
	}

	auth := opts.Authorization
	auth.Features = []string{filters.FeatureIssues}
	auth.NoJoinProject = true
	auth.PublicAndInternal = true

	filters.BySearchLevel(doc, c.Scope)
	filters.ByProjectAuthorization(doc, c.Scope, auth)
	filters.ByConfidentiality(doc, c.Scope, opts.Confidentiality)
	filters.ByConfidential(doc, opts.Confidential)
	filters.ByState(doc, opts.State)
	filters.ByNotHidden(doc, c.Scope.Principal)
	if err := labels(ctx, doc, deps, c, opts.LabelFilter); err != nil {
		return nil, err
	}
	if err := archived(doc, c); err != nil {
		return nil, err
	}
	filters.ByAuthor(doc, opts.Author)
	filters.ByMilestone(doc, opts.Milestone)
	filters.ByAssignees(doc, opts.Assignees)
	filters.ByHealthStatus(doc, opts.HealthStatus)
	filters.ByWeight(doc, opts.Weight)
	filters.ByCreatedAt(doc, opts.CreatedAt)
	filters.ByUpdatedAt(doc, opts.UpdatedAt)
	filters.ByClosedAt(doc, opts.ClosedAt)
	filters.ByDueDate(doc, opts.DueDate)

	vectors(ctx, doc, deps, c)
	sortBy(doc, c, DocTypeIssue)
	return doc, nil
}
