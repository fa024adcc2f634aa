package builders

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

var alice = authz.User{UserID: 7}

type mockLabels struct {
	ids map[string][]int64
}

func (m *mockLabels) LabelIDs(_ context.Context, name string, _ filters.LabelScope) ([]int64, error) {
	return m.ids[name], nil
}

type mockEmbedder struct {
	vector []float32
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: 2}, nil
}

func testDeps() Deps {
	return Deps{Labels: &mockLabels{ids: map[string][]int64{"bug": {11, 12}}}}
}

func groupCommon(query string) Common {
	return Common{
		Query: query,
		Scope: filters.Scope{
			Principal:  alice,
			Level:      level.Group,
			ProjectIDs: []int64{1, 2},
			GroupIDs:   []int64{4},
			Ancestries: []string{"9970-4-"},
		},
	}
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// clauseNames returns every _name under query.bool.<list> in document order.
func clauseNames(t *testing.T, doc *querydoc.Document, list string) []string {
	t.Helper()
	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(toJSON(t, doc)), &tree))

	boolNode, _ := tree["query"].(map[string]any)["bool"].(map[string]any)
	var names []string
	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if k == "_name" {
					names = append(names, node[k].(string))
					continue
				}
				walk(node[k])
			}
		case []any:
			for _, item := range node {
				walk(item)
			}
		}
	}
	walk(boolNode[list])
	return names
}

// requireInOrder checks that want appears in got as an ordered subsequence.
func requireInOrder(t *testing.T, got, want []string) {
	t.Helper()
	i := 0
	for _, name := range got {
		if i < len(want) && name == want[i] {
			i++
		}
	}
	require.Equal(t, len(want), i, "missing %q in order; got %v", want[min(i, len(want)-1)], got)
}
