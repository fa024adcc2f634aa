package keyset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/cursor"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
)

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

var createdAsc = sortorder.Spec{{Name: "created_at", Direction: sortorder.Asc}}

func TestFirst_AfterTieBreak(t *testing.T) {
	doc := New(querydoc.New(), createdAsc).After("2025-01-01", 1).First(10)

	assert.JSONEq(t, `[{"bool":{"should":[
		{"range":{"created_at":{"gt":"2025-01-01"}}},
		{"bool":{"must":[{"term":{"created_at":"2025-01-01"}},{"range":{"id":{"gt":1}}}]}}
	]}}]`, toJSON(t, doc.Bool.Filter))
	assert.JSONEq(t, `[{"created_at":"asc"},{"id":"asc"}]`, toJSON(t, doc.Sort))
	require.NotNil(t, doc.Size)
	assert.Equal(t, 10, *doc.Size)
}

func TestLast_InvertsSortKeepsFilter(t *testing.T) {
	p := New(querydoc.New(), createdAsc).After("2025-01-01", 1)

	first := p.First(10)
	last := p.Last(10)

	assert.JSONEq(t, toJSON(t, first.Bool.Filter), toJSON(t, last.Bool.Filter))
	assert.JSONEq(t, `[{"created_at":"desc"},{"id":"desc"}]`, toJSON(t, last.Sort))
	assert.Equal(t, *first.Size, *last.Size)
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name   string
		dir    sortorder.Direction
		before bool
		want   string
	}{
		{"asc after", sortorder.Asc, false, "gt"},
		{"asc before", sortorder.Asc, true, "lt"},
		{"desc after", sortorder.Desc, false, "lt"},
		{"desc before", sortorder.Desc, true, "gt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(querydoc.New(), sortorder.Spec{{Name: "updated_at", Direction: tt.dir}})
			if tt.before {
				p.Before(100, 7)
			} else {
				p.After(100, 7)
			}
			doc := p.First(5)

			want := `[{"bool":{"should":[
				{"range":{"updated_at":{"` + tt.want + `":100}}},
				{"bool":{"must":[{"term":{"updated_at":100}},{"range":{"id":{"` + tt.want + `":7}}}]}}
			]}}]`
			assert.JSONEq(t, want, toJSON(t, doc.Bool.Filter))
		})
	}
}

func TestNullableField(t *testing.T) {
	spec := sortorder.Spec{{Name: "due_date", Direction: sortorder.Asc, Nullable: true}}

	t.Run("after adds missing disjunct", func(t *testing.T) {
		doc := New(querydoc.New(), spec).After("2025-03-01", 4).First(20)

		assert.JSONEq(t, `[{"bool":{"should":[
			{"range":{"due_date":{"gt":"2025-03-01"}}},
			{"bool":{"must":[{"term":{"due_date":"2025-03-01"}},{"range":{"id":{"gt":4}}}]}},
			{"bool":{"must_not":[{"exists":{"field":"due_date"}}]}}
		]}}]`, toJSON(t, doc.Bool.Filter))
	})

	t.Run("before omits it", func(t *testing.T) {
		doc := New(querydoc.New(), spec).Before("2025-03-01", 4).First(20)

		assert.NotContains(t, toJSON(t, doc.Bool.Filter), "exists")
	})
}

func TestNullPrimaryCollapses(t *testing.T) {
	spec := sortorder.Spec{{Name: "due_date", Direction: sortorder.Asc, Nullable: true}}

	for name, p := range map[string]*Paginator{
		"after":  New(querydoc.New(), spec).After(nil, 4),
		"before": New(querydoc.New(), spec).Before(nil, 4),
	} {
		t.Run(name, func(t *testing.T) {
			op := "gt"
			if name == "before" {
				op = "lt"
			}
			assert.JSONEq(t, `[{"bool":{
				"must":[{"range":{"id":{"`+op+`":4}}}],
				"must_not":[{"exists":{"field":"due_date"}}]
			}}]`, toJSON(t, p.First(20).Bool.Filter))
		})
	}
}

func TestTieBreakerResolution(t *testing.T) {
	t.Run("custom tie-breaker appended", func(t *testing.T) {
		p := New(querydoc.New(), sortorder.Spec{{Name: "created_at", Direction: sortorder.Desc}}, WithTieBreaker("iid"))

		assert.Equal(t, "iid", p.TieBreaker())
		assert.JSONEq(t, `[{"created_at":"desc"},{"iid":"desc"}]`, toJSON(t, p.First(1).Sort))
	})

	t.Run("unrecognized falls back to second field", func(t *testing.T) {
		spec := sortorder.Spec{{Name: "updated_at", Direction: sortorder.Desc}, {Name: "iid", Direction: sortorder.Desc}}
		p := New(querydoc.New(), spec, WithTieBreaker("uuid"))

		assert.Equal(t, "iid", p.TieBreaker())
		doc := p.After(5, 9).First(3)
		assert.Contains(t, toJSON(t, doc.Bool.Filter), `{"range":{"iid":{"lt":9}}}`)
		assert.JSONEq(t, `[{"updated_at":"desc"},{"iid":"desc"}]`, toJSON(t, doc.Sort))
	})

	t.Run("recognized tie-breaker kept", func(t *testing.T) {
		spec := sortorder.Spec{{Name: "updated_at", Direction: sortorder.Desc}, {Name: "iid", Direction: sortorder.Desc}, {Name: "id", Direction: sortorder.Desc}}

		assert.Equal(t, "id", New(querydoc.New(), spec).TieBreaker())
	})
}

func TestPage_LeavesBaseUntouched(t *testing.T) {
	base := querydoc.New()
	base.AddFilter(clause.Term("state", "opened"))
	want := toJSON(t, base)

	doc := New(base, createdAsc).After("2025-01-01", 1).First(10)

	assert.JSONEq(t, want, toJSON(t, base))
	assert.Len(t, doc.Bool.Filter, 2)
}

func TestLastBoundWins(t *testing.T) {
	doc := New(querydoc.New(), createdAsc).After("a", 1).Before("b", 2).First(1)

	assert.Len(t, doc.Bool.Filter, 1)
	assert.Contains(t, toJSON(t, doc.Bool.Filter), `"lt":"b"`)
}

func TestCursorFor_Sentinels(t *testing.T) {
	tests := []struct {
		name   string
		dir    sortorder.Direction
		values []any
	}{
		{"max sentinel ascending", sortorder.Asc, []any{json.Number("9223372036854775807"), json.Number("12")}},
		{"min sentinel descending", sortorder.Desc, []any{json.Number("-9223372036854775808"), json.Number("12")}},
		{"max sentinel descending", sortorder.Desc, []any{int64(MaxSentinel), json.Number("12")}},
		{"float sentinel", sortorder.Asc, []any{float64(MaxSentinel), json.Number("12")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := sortorder.Spec{{Name: "due_date", Direction: tt.dir, Nullable: true}}
			c, ok := New(querydoc.New(), spec).CursorFor(tt.values)

			require.True(t, ok)
			assert.True(t, c.IsPrimaryNull())
			assert.Equal(t, json.Number("12"), c.TieBreaker)
		})
	}
}

func TestCursorFor_RoundTripIntoBound(t *testing.T) {
	p := New(querydoc.New(), createdAsc)
	c, ok := p.CursorFor([]any{json.Number("1735689600000"), json.Number("77")})
	require.True(t, ok)

	decoded, err := cursor.Decode(c.Encode())
	require.NoError(t, err)

	doc := p.After(decoded.Primary, decoded.TieBreaker).First(10)
	assert.Contains(t, toJSON(t, doc.Bool.Filter), `{"range":{"created_at":{"gt":1735689600000}}}`)
	assert.Contains(t, toJSON(t, doc.Bool.Filter), `{"range":{"id":{"gt":77}}}`)
}

func TestCursorFor_Invalid(t *testing.T) {
	p := New(querydoc.New(), createdAsc)

	_, ok := p.CursorFor(nil)
	assert.False(t, ok)

	_, ok = p.CursorFor([]any{json.Number("1"), json.Number("9223372036854775807")})
	assert.False(t, ok)
}

func TestDecodeSortValue(t *testing.T) {
	assert.Nil(t, DecodeSortValue(json.Number("9223372036854775807")))
	assert.Nil(t, DecodeSortValue(json.Number("-9223372036854775808")))
	assert.Nil(t, DecodeSortValue(MinSentinel))
	assert.Nil(t, DecodeSortValue("9223372036854775807"))
	assert.Equal(t, json.Number("42"), DecodeSortValue(json.Number("42")))
	assert.Equal(t, "2025-01-01", DecodeSortValue("2025-01-01"))
	assert.Equal(t, 1.5, DecodeSortValue(1.5))
}

func TestReversePage(t *testing.T) {
	assert.Equal(t, []int{3, 2, 1}, ReversePage([]int{1, 2, 3}))
	assert.Empty(t, ReversePage([]string{}))
}

func TestRelevance_EmptySpec(t *testing.T) {
	p := New(querydoc.New(), nil)

	assert.True(t, p.Relevance())
	assert.Equal(t, DefaultTieBreaker, p.TieBreaker())

	doc := p.First(5)
	assert.JSONEq(t, `[{"_score":"desc"},{"id":"asc"}]`, toJSON(t, doc.Sort))
	assert.True(t, doc.TrackScores)
	assert.Empty(t, doc.Bool.Filter)
	assert.Nil(t, doc.SearchAfter)
}

func TestRelevance_BoundsWithSearchAfter(t *testing.T) {
	p := New(querydoc.New(), nil).After(json.Number("2.75"), json.Number("41"))

	doc := p.First(5)
	assert.Empty(t, doc.Bool.Filter)
	assert.JSONEq(t, `[2.75,41]`, toJSON(t, doc.SearchAfter))

	before := New(querydoc.New(), nil).Before(json.Number("2.75"), json.Number("41")).First(5)
	assert.JSONEq(t, `[{"_score":"asc"},{"id":"desc"}]`, toJSON(t, before.Sort))
	assert.JSONEq(t, `[2.75,41]`, toJSON(t, before.SearchAfter))
}

func TestRelevance_CursorFromScore(t *testing.T) {
	p := New(querydoc.New(), nil)

	c, ok := p.CursorFor([]any{json.Number("3.0517578e-05"), json.Number("12")})
	require.True(t, ok)
	assert.Equal(t, json.Number("3.0517578e-05"), c.Primary)
	assert.Equal(t, json.Number("12"), c.TieBreaker)
}

func TestBound_SyncsVectorFilter(t *testing.T) {
	base := querydoc.New()
	base.AddFilter(clause.Term("state", "opened"))
	base.KNN = clause.Clause{
		"field":        "embedding_0",
		"query_vector": []float32{0.1},
		"filter":       []clause.Clause{clause.Term("state", "opened")},
	}

	doc := New(base, createdAsc).After("2025-01-01", 1).First(10)

	require.Len(t, doc.Bool.Filter, 2)
	assert.JSONEq(t, toJSON(t, doc.Bool.Filter), toJSON(t, doc.KNN["filter"]))
	assert.Len(t, base.KNN["filter"], 1)
}
