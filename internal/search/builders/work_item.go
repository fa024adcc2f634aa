package builders

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DocTypeWorkItem is the document type of work items.
const DocTypeWorkItem = "work_item"

var workItemFields = []string{"iid^50", "title^2", "description"}

// WorkItemOptions are the options of WorkItem and WorkItemGroup.
type WorkItemOptions struct {
	Common
	LabelFilter

	State           string                           `json:"state,omitempty"`
	Confidential    *bool                            `json:"confidential,omitempty"`
	Confidentiality filters.ConfidentialityOptions   `json:"confidentiality"`
	Authorization   filters.AuthorizationOptions     `json:"authorization"`
	WorkItemType    filters.IDListPairOptions        `json:"work_item_type"`
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

// WorkItem builds the document for project-owned work items.
func WorkItem(ctx context.Context, deps Deps, opts WorkItemOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeWorkItem, '#', workItemFields); err != nil {
		return nil, err
	}

	auth := opts.Authorization
	auth.Features = []string{filters.FeatureIssues}
	auth.NoJoinProject = true
	auth.PublicAndInternal = true

	filters.BySearchLevel(doc, c.Scope)
	filters.ByProjectAuthorization(doc, c.Scope, auth)
	filters.ByConfidentiality(doc, c.Scope, opts.Confidentiality)
	if err := workItemFilters(ctx, doc, deps, opts); err != nil {
		return nil, err
	}

	vectors(ctx, doc, deps, c)
	sortBy(doc, c, DocTypeWorkItem)
	return doc, nil
}

// WorkItemGroup builds the document for group-owned work items (epics).
// Only group and global scope are meaningful.
func WorkItemGroup(ctx context.Context, deps Deps, opts WorkItemOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if c.Scope.Level == level.Project {
		return nil, domain.InvalidOption("search_level", "must be group or global for group work items")
	}
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeWorkItem, '&', workItemFields); err != nil {
		return nil, err
	}

	filters.ByGroupOwned(doc)
	filters.ByGroupLevelAuthorization(doc, c.Scope, opts.Authorization)
	filters.ByGroupLevelConfidentiality(doc, c.Scope, opts.Confidentiality)
	if err := workItemFilters(ctx, doc, deps, opts); err != nil {
		return nil, err
	}

	vectors(ctx, doc, deps, c)
	sortBy(doc, c, DocTypeWorkItem)
	return doc, nil
}

func workItemFilters(ctx context.Context, doc *querydoc.Document, deps Deps, opts WorkItemOptions) error {
	c := &opts.Common

	filters.ByConfidential(doc, opts.Confidential)
	filters.ByState(doc, opts.State)
	filters.ByNotHidden(doc, c.Scope.Principal)
	if err := labels(ctx, doc, deps, c, opts.LabelFilter); err != nil {
		return err
	}
	if err := archived(doc, c); err != nil {
		return err
	}
	filters.ByWorkItemType(doc, opts.WorkItemType)
	filters.ByAuthor(doc, opts.Author)
	filters.ByMilestone(doc, opts.Milestone)
	filters.ByAssignees(doc, opts.Assignees)
	filters.ByHealthStatus(doc, opts.HealthStatus)
	filters.ByWeight(doc, opts.Weight)
	filters.ByCreatedAt(doc, opts.CreatedAt)
	filters.ByUpdatedAt(doc, opts.UpdatedAt)
	filters.ByClosedAt(doc, opts.ClosedAt)
	filters.ByDueDate(doc, opts.DueDate)
	return nil
}
