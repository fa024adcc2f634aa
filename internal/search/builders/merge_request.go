package builders

import (
	"context"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// DocTypeMergeRequest is the document type of merge requests.
const DocTypeMergeRequest = "merge_request"

var mergeRequestFields = []string{"iid^3", "title^2", "description"}

// MergeRequestOptions are the options of MergeRequest.
type MergeRequestOptions struct {
	Common
	LabelFilter

	State         string                       `json:"state,omitempty"`
	Draft         *bool                        `json:"draft,omitempty"`
	SourceBranch  filters.PairOptions          `json:"source_branch"`
	TargetBranch  filters.PairOptions          `json:"target_branch"`
	Author        filters.IDPairOptions        `json:"author"`
	Assignees     filters.PeopleOptions        `json:"assignees"`
	Reviewers     filters.PeopleOptions        `json:"reviewers"`
	Milestone     filters.MilestoneOptions     `json:"milestone"`
	Authorization filters.AuthorizationOptions `json:"authorization"`
	CreatedAt     filters.DateRange            `json:"created_at"`
	UpdatedAt     filters.DateRange            `json:"updated_at"`
}

// MergeRequest builds the merge request search document.
func MergeRequest(ctx context.Context, deps Deps, opts MergeRequestOptions) (*querydoc.Document, error) {
	c := &opts.Common
	if err := c.Scope.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // argument errors name their key
	}
	doc := querydoc.New()

	if err := text(doc, c, DocTypeMergeRequest, '!', mergeRequestFields); err != nil {
		return nil, err
	}

	auth := opts.Authorization
	auth.Features = []string{filters.FeatureMergeRequests}
	auth.NoJoinProject = true
	auth.PublicAndInternal = true

	filters.BySearchLevel(doc, c.Scope)
	filters.ByProjectAuthorization(doc, c.Scope, auth)
	filters.ByState(doc, opts.State)
	filters.ByNotHidden(doc, c.Scope.Principal)
	if err := archived(doc, c); err != nil {
		return nil, err
	}
	filters.BySourceBranch(doc, opts.SourceBranch)
	filters.ByTargetBranch(doc, opts.TargetBranch)
	filters.ByAuthor(doc, opts.Author)
	filters.ByDraft(doc, opts.Draft)
	if err := labels(ctx, doc, deps, c, opts.LabelFilter); err != nil {
		return nil, err
	}
	filters.ByAssignees(doc, opts.Assignees)
	filters.ByReviewers(doc, opts.Reviewers)
	filters.ByMilestone(doc, opts.Milestone)
	filters.ByCreatedAt(doc, opts.CreatedAt)
	filters.ByUpdatedAt(doc, opts.UpdatedAt)

	vectors(ctx, doc, deps, c)
	sortBy(doc, c, DocTypeMergeRequest)
	return doc, nil
}
