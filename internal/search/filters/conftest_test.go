package filters

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/level"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// seededDoc returns a document that already carries a clause, so no-op
// checks compare against something non-trivial.
func seededDoc() *querydoc.Document {
	doc := querydoc.New()
	doc.AddMust(clause.MatchAll())
	doc.AddFilter(clause.Term("project_id", 1))
	return doc
}

var (
	alice = authz.User{UserID: 7}
	admin = authz.User{UserID: 1, ReadAll: true, AdminAll: true}
	guest = authz.User{UserID: 9, External: true}
)

type mockLabelResolver struct {
	ids   map[string][]int64
	err   error
	calls []LabelScope
}

func (m *mockLabelResolver) LabelIDs(_ context.Context, name string, scope LabelScope) ([]int64, error) {
	m.calls = append(m.calls, scope)
	if m.err != nil {
		return nil, m.err
	}
	return m.ids[name], nil
}

func groupScope(p authz.Principal) Scope {
	return Scope{Principal: p, Level: level.Group, GroupIDs: []int64{4}, Ancestries: []string{"9970-4-"}}
}
