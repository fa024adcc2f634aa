package builders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
)

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry(testDeps())
	body := []byte(`{
		"query": "flaky",
		"scope": {"search_level": "project", "project_ids": [5]},
		"state": "opened",
		"label_names": ["bug"],
		"sort": "due_date_asc"
	}`)

	built, err := r.Build(context.Background(), EntityIssue, Env{Principal: alice, TextMode: queries.ModeSimpleQueryString}, body)
	require.NoError(t, err)

	assert.Equal(t, DocTypeIssue, built.DocType)
	assert.Equal(t, sortorder.Spec{{Name: "due_date", Direction: sortorder.Asc, Nullable: true}}, built.Sort)
	names := clauseNames(t, built.Doc, "filter")
	assert.Contains(t, names, "filters:level:project")
	assert.Contains(t, names, "filters:label_ids")
	assert.Contains(t, names, "filters:confidential:as_author")
	assert.Equal(t, []string{"issue:match:search_terms"}, clauseNames(t, built.Doc, "must"))
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry(testDeps())

	_, err := r.Build(context.Background(), "snippets", Env{}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)

	_, err = r.Build(context.Background(), EntityIssue, Env{}, []byte(`{"query": 5}`))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = r.Build(context.Background(), EntityIssue, Env{}, []byte(`{"query": "x"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRegistry_GroupScopeConfinedToAncestries(t *testing.T) {
	r := NewRegistry(testDeps())

	for _, entity := range r.Entities() {
		t.Run(entity, func(t *testing.T) {
			built, err := r.Build(context.Background(), entity, Env{Principal: alice},
				[]byte(`{"scope": {"search_level": "group", "group_ids": [5], "ancestries": ["9970-5-"]}}`))
			require.NoError(t, err)
			assert.Contains(t, toJSON(t, built.Doc.Bool.Filter),
				`{"prefix":{"traversal_ids":{"_name":"filters:namespace:ancestry","value":"9970-5-"}}}`)
		})
	}
}

func TestRegistry_GroupScopeWithoutAncestries(t *testing.T) {
	r := NewRegistry(testDeps())

	for _, entity := range r.Entities() {
		t.Run(entity, func(t *testing.T) {
			_, err := r.Build(context.Background(), entity, Env{Principal: alice},
				[]byte(`{"scope": {"search_level": "group", "group_ids": [5]}}`))
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Contains(t, err.Error(), "ancestries")
		})
	}
}

func TestRegistry_Entities(t *testing.T) {
	assert.Equal(t, []string{"epics", "issues", "merge_requests", "milestones", "projects", "work_items"},
		NewRegistry(Deps{}).Entities())
}
