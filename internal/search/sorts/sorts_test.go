package sorts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		docType string
		orderBy string
		sort    string
		want    sortorder.Spec
	}{
		{"alias", "issue", "", "created_desc", sortorder.Spec{{Name: "created_at", Direction: sortorder.Desc}}},
		{"popularity", "merge_request", "", "popularity_asc", sortorder.Spec{{Name: "upvotes", Direction: sortorder.Asc}}},
		{"nullable due date", "work_item", "", "due_date_asc", sortorder.Spec{{Name: "due_date", Direction: sortorder.Asc, Nullable: true}}},
		{"stars", "project", "", "stars_desc", sortorder.Spec{{Name: "star_count", Direction: sortorder.Desc}}},
		{"order_by wins", "issue", "updated_at", "asc", sortorder.Spec{{Name: "updated_at", Direction: sortorder.Asc}}},
		{"order_by default desc", "issue", "created_at", "", sortorder.Spec{{Name: "created_at", Direction: sortorder.Desc}}},
		{"order_by over alias", "issue", "updated_at", "created_asc", sortorder.Spec{{Name: "updated_at", Direction: sortorder.Desc}}},
		{"unknown doc type", "wiki_blob", "", "created_desc", nil},
		{"unknown alias", "issue", "", "relevance", nil},
		{"unsupported for type", "merge_request", "", "due_date_asc", nil},
		{"unknown order_by", "issue", "title", "asc", nil},
		{"empty", "issue", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.docType, tt.orderBy, tt.sort))
		})
	}
}

func TestSortBy(t *testing.T) {
	spec := Lookup("issue", "", "created_asc")

	doc := querydoc.New()
	SortBy(doc, spec, false)
	assert.Len(t, doc.Sort, 1)

	counted := querydoc.New()
	SortBy(counted, spec, true)
	assert.Nil(t, counted.Sort)

	empty := querydoc.New()
	SortBy(empty, nil, false)
	assert.Nil(t, empty.Sort)
}
