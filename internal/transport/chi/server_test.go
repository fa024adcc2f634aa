package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/repository/label"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	healthuc "github.com/kailas-cloud/searchkit/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
	usageuc "github.com/kailas-cloud/searchkit/internal/usecase/usage"
)

// --- Mocks ---

type mockSearch struct {
	req      searchuc.Request
	result   *searchuc.Result
	prepared *searchuc.Prepared
	err      error
}

func (m *mockSearch) Search(_ context.Context, req searchuc.Request) (*searchuc.Result, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockSearch) Prepare(_ context.Context, req searchuc.Request) (*searchuc.Prepared, error) {
	m.req = req
	return m.prepared, m.err
}

type mockLabels struct {
	put     []label.Label
	deleted *label.Label
	err     error
}

func (m *mockLabels) Put(_ context.Context, labels ...label.Label) error {
	if m.err != nil {
		return m.err
	}
	for _, l := range labels {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	m.put = append(m.put, labels...)
	return nil
}

func (m *mockLabels) Delete(_ context.Context, l label.Label) error {
	m.deleted = &l
	return m.err
}

type mockUsage struct {
	period usageuc.Period
}

func (m *mockUsage) GetReport(_ context.Context, period usageuc.Period) usageuc.Report {
	m.period = period
	return usageuc.Report{
		Period:          period,
		PeriodStart:     time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Provider:        "openai",
		TokensLimit:     1000,
		TokensUsed:      250,
		TokensRemaining: 750,
	}
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	search *mockSearch
	labels *mockLabels
	usage  *mockUsage
	health *mockHealth
	server *Server
}

func newFixture() *fixture {
	f := &fixture{
		search: &mockSearch{},
		labels: &mockLabels{},
		usage:  &mockUsage{},
		health: &mockHealth{},
	}
	f.server = NewServer(f.search, f.labels, f.usage, f.health, SearchSettings{
		TextMode:         queries.ModeSimpleQueryString,
		KNN:              queries.KNNOptions{K: 10},
		VectorsSupported: true,
	}, zap.NewNop())
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

// --- Search ---

func TestSearch_ForwardsRequest(t *testing.T) {
	f := newFixture()
	f.search.result = &searchuc.Result{
		Entity: "issues",
		Total:  42,
		Hits: []searchuc.Hit{
			{ID: "issue_1", Score: 1.5, Source: json.RawMessage(`{"title":"bug"}`), Cursor: "c1"},
		},
		PageInfo:  searchuc.PageInfo{HasNextPage: true, StartCursor: "c1", EndCursor: "c1"},
		Embedding: domain.EmbeddingUsage{TotalTokens: 7, Used: true},
	}

	body := `{"principal":{"id":5,"can_read_all_resources":true},"query":"bug","search_level":"global"}`
	rr := f.do(http.MethodPost, "/v1/search/issues?first=10&after=abc", body)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "7", rr.Header().Get("X-Embedding-Tokens"))
	assert.Empty(t, rr.Header().Get("X-Embedding-Degraded"))

	req := f.search.req
	assert.Equal(t, "issues", req.Entity)
	assert.Equal(t, searchuc.Page{First: 10, After: "abc"}, req.Page)
	assert.JSONEq(t, body, string(req.Body))
	assert.Equal(t, authz.User{UserID: 5, ReadAll: true}, req.Env.Principal)
	assert.Equal(t, queries.ModeSimpleQueryString, req.Env.TextMode)
	assert.Equal(t, 10, req.Env.KNN.K)
	assert.Empty(t, req.Env.KNN.ThrottleKey)
	assert.True(t, req.Env.VectorsSupported)

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 42, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "issue_1", resp.Items[0].ID)
	assert.JSONEq(t, `{"title":"bug"}`, string(resp.Items[0].Source))
	assert.True(t, resp.PageInfo.HasNextPage)
	assert.Equal(t, "c1", resp.PageInfo.EndCursor)
}

func TestSearch_AnonymousPrincipal(t *testing.T) {
	f := newFixture()
	f.search.result = &searchuc.Result{
		Entity:    "projects",
		Embedding: domain.EmbeddingUsage{Used: true, Degraded: true},
	}

	rr := f.do(http.MethodPost, "/v1/search/projects?last=5&before=xyz", `{"query":"kit"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, f.search.req.Env.Principal)
	assert.Equal(t, "anonymous:192.0.2.1", f.search.req.Env.KNN.ThrottleKey)
	assert.Equal(t, searchuc.Page{Last: 5, Before: "xyz"}, f.search.req.Page)
	assert.Equal(t, "true", rr.Header().Get("X-Embedding-Degraded"))
	assert.Equal(t, "0", rr.Header().Get("X-Embedding-Tokens"))

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestSearch_EmptyBody(t *testing.T) {
	f := newFixture()
	f.search.result = &searchuc.Result{Entity: "milestones"}

	rr := f.do(http.MethodPost, "/v1/search/milestones", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.search.req.Body)
}

func TestSearch_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"non-numeric first", "/v1/search/issues?first=ten", `{}`},
		{"non-numeric last", "/v1/search/issues?last=x", `{}`},
		{"malformed body", "/v1/search/issues", `{"query":`},
		{"principal of wrong type", "/v1/search/issues", `{"principal":"root"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(http.MethodPost, tt.target, tt.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, ErrorResponseCodeBadRequest, decodeError(t, rr).Code)
			assert.Empty(t, f.search.req.Entity, "search must not run")
		})
	}
}

func TestSearch_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorResponseCode
		wantMsg    string
	}{
		{
			"missing option",
			fmt.Errorf("build issues query: %w", domain.MissingOption("search_level")),
			http.StatusBadRequest, ErrorResponseCodeValidationFailed, "search_level is a required option",
		},
		{
			"invalid cursor",
			fmt.Errorf("%w: bad base64", domain.ErrInvalidCursor),
			http.StatusBadRequest, ErrorResponseCodeInvalidCursor, "invalid cursor",
		},
		{
			"unknown entity",
			fmt.Errorf("%w: %q", domain.ErrUnknownEntity, "wikis"),
			http.StatusNotFound, ErrorResponseCodeUnknownEntity, "unknown search entity",
		},
		{
			"missing index",
			fmt.Errorf("search issues: %w", domain.ErrNotFound),
			http.StatusNotFound, ErrorResponseCodeNotFound, "not found",
		},
		{
			"rate limited",
			domain.ErrRateLimited,
			http.StatusTooManyRequests, ErrorResponseCodeRateLimited, "rate limited",
		},
		{
			"quota",
			fmt.Errorf("daily: %w", domain.ErrEmbeddingQuotaExceeded),
			http.StatusPaymentRequired, ErrorResponseCodeEmbeddingQuotaExceeded, "embedding quota exceeded",
		},
		{
			"engine failure",
			fmt.Errorf("search issues: %w: connection refused", domain.ErrSearchEngine),
			http.StatusBadGateway, ErrorResponseCodeSearchEngineUnavailable, "search engine error",
		},
		{
			"unexpected",
			errors.New("boom: secret internals"),
			http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.search.err = tt.err

			rr := f.do(http.MethodPost, "/v1/search/issues", `{}`)

			require.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

// --- Query ---

func TestQuery_ReturnsDocument(t *testing.T) {
	f := newFixture()
	doc := querydoc.New()
	doc.SetSize(21)
	f.search.prepared = &searchuc.Prepared{
		Entity:    "issues",
		Index:     "gitlab-issues",
		Doc:       doc,
		Embedding: domain.EmbeddingUsage{TotalTokens: 3, Used: true},
	}

	rr := f.do(http.MethodPost, "/v1/query/issues?first=20", `{"query":"x"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "3", rr.Header().Get("X-Embedding-Tokens"))
	assert.Equal(t, 20, f.search.req.Page.First)

	var resp QueryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "gitlab-issues", resp.Index)
	assert.False(t, resp.CountOnly)

	var query map[string]any
	require.NoError(t, json.Unmarshal(resp.Query, &query))
	assert.EqualValues(t, 21, query["size"])
	assert.Contains(t, query, "query")
}

func TestQuery_Error(t *testing.T) {
	f := newFixture()
	f.search.err = domain.InvalidOption("last", "cannot be combined with first")

	rr := f.do(http.MethodPost, "/v1/query/issues?first=1&last=1", `{}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorResponseCodeValidationFailed, decodeError(t, rr).Code)
}

// --- Labels ---

func TestPutLabels(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodPost, "/v1/labels",
		`{"labels":[{"id":1,"name":"bug","project_id":10},{"id":2,"name":"bug","group_id":3}]}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"indexed":2}`, rr.Body.String())
	assert.Equal(t, []label.Label{
		{ID: 1, Name: "bug", ProjectID: 10},
		{ID: 2, Name: "bug", GroupID: 3},
	}, f.labels.put)
}

func TestPutLabels_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode ErrorResponseCode
	}{
		{"malformed", `{"labels":`, ErrorResponseCodeBadRequest},
		{"empty", `{"labels":[]}`, ErrorResponseCodeValidationFailed},
		{"no owner", `{"labels":[{"id":1,"name":"bug"}]}`, ErrorResponseCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(http.MethodPost, "/v1/labels", tt.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
			assert.Empty(t, f.labels.put)
		})
	}
}

func TestPutLabels_StoreError(t *testing.T) {
	f := newFixture()
	f.labels.err = errors.New("connection reset")

	rr := f.do(http.MethodPost, "/v1/labels", `{"labels":[{"id":1,"name":"bug","project_id":1}]}`)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal error", decodeError(t, rr).Message)
}

func TestDeleteLabel(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodDelete, "/v1/labels/bug?id=4&group_id=9", "")

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NotNil(t, f.labels.deleted)
	assert.Equal(t, label.Label{ID: 4, Name: "bug", GroupID: 9}, *f.labels.deleted)
}

func TestDeleteLabel_BadParams(t *testing.T) {
	for _, target := range []string{
		"/v1/labels/bug",
		"/v1/labels/bug?id=x",
		"/v1/labels/bug?id=1&project_id=abc",
	} {
		t.Run(target, func(t *testing.T) {
			f := newFixture()
			rr := f.do(http.MethodDelete, target, "")

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, ErrorResponseCodeBadRequest, decodeError(t, rr).Code)
			assert.Nil(t, f.labels.deleted)
		})
	}
}

// --- Usage ---

func TestGetUsage(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/v1/usage", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, usageuc.PeriodDay, f.usage.period)
	assert.JSONEq(t, `{
		"period": "day",
		"period_start_at": "2026-10-18T00:00:00Z",
		"period_end_at": "2026-10-19T00:00:00Z",
		"provider": "openai",
		"tokens_limit": 1000,
		"tokens_used": 250,
		"tokens_remaining": 750,
		"is_exhausted": false
	}`, rr.Body.String())
}

func TestGetUsage_Month(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/v1/usage?period=month", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, usageuc.PeriodMonth, f.usage.period)
}

func TestGetUsage_InvalidPeriod(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/v1/usage?period=year", "")

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ErrorResponseCodeValidationFailed, decodeError(t, rr).Code)
}

// --- Health, routing ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status     healthuc.Status
		wantStatus int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			f.health.report = healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentSearchEngine: healthuc.CheckOK},
			}

			rr := f.do(http.MethodGet, "/health", "")

			require.Equal(t, tt.wantStatus, rr.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, string(tt.status), resp.Status)
			assert.Equal(t, "ok", resp.Checks["search_engine"])
		})
	}
}

func TestRouting_NotFoundAndMethod(t *testing.T) {
	f := newFixture()

	rr := f.do(http.MethodGet, "/v2/nothing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrorResponseCodeNotFound, decodeError(t, rr).Code)

	rr = f.do(http.MethodGet, "/v1/search/issues", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandler_AppliesMiddleware(t *testing.T) {
	f := newFixture()
	f.search.result = &searchuc.Result{Entity: "issues"}

	h := f.server.Handler(BearerAuthMiddleware([]string{"secret"}))

	req := httptest.NewRequest(http.MethodPost, "/v1/search/issues", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/search/issues", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
