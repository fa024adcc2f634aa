package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/repository/label"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	healthuc "github.com/kailas-cloud/searchkit/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
	usageuc "github.com/kailas-cloud/searchkit/internal/usecase/usage"
)

const maxBodyBytes = 1 << 20

// SearchService executes and prepares entity searches.
type SearchService interface {
	Search(ctx context.Context, req searchuc.Request) (*searchuc.Result, error)
	Prepare(ctx context.Context, req searchuc.Request) (*searchuc.Prepared, error)
}

// LabelIndex stores the label names used by label filters.
type LabelIndex interface {
	Put(ctx context.Context, labels ...label.Label) error
	Delete(ctx context.Context, l label.Label) error
}

// UsageReporter reports embedding budget consumption.
type UsageReporter interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// SearchSettings are the server-side parts of every build environment.
type SearchSettings struct {
	TextMode         queries.TextMode
	KNN              queries.KNNOptions
	VectorsSupported bool
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search HTTP API.
type Server struct {
	search        SearchService
	labels        LabelIndex
	usage         UsageReporter
	health        HealthChecker
	settings      SearchSettings
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	labels LabelIndex,
	usage UsageReporter,
	health HealthChecker,
	settings SearchSettings,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		labels:   labels,
		usage:    usage,
		health:   health,
		settings: settings,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		argumentHandler,
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, ErrorResponseCodeInvalidCursor),
		sentinelHandler(domain.ErrUnknownEntity, http.StatusNotFound, ErrorResponseCodeUnknownEntity),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, ErrorResponseCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrSearchEngine, http.StatusBadGateway, ErrorResponseCodeSearchEngineUnavailable),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search/{entity}", s.Search)
		r.Post("/query/{entity}", s.Query)
		r.Post("/labels", s.PutLabels)
		r.Delete("/labels/{name}", s.DeleteLabel)
		r.Get("/usage", s.GetUsage)
	})
}

// Handler returns a router serving the API behind the given middlewares.
func (s *Server) Handler(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})
	s.Routes(r)
	return r
}

// Search handles POST /v1/search/{entity}.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}

	res, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchHit, len(res.Hits))
	for i, h := range res.Hits {
		items[i] = SearchHit{
			ID:             h.ID,
			Score:          h.Score,
			Source:         h.Source,
			Highlight:      h.Highlight,
			MatchedQueries: h.MatchedQueries,
			Cursor:         h.Cursor,
		}
	}

	setEmbeddingHeaders(w, res.Embedding)
	writeJSON(w, http.StatusOK, SearchResponse{
		Entity:        res.Entity,
		Total:         res.Total,
		TotalRelation: res.TotalRelation,
		Items:         items,
		PageInfo: PageInfo{
			HasNextPage:     res.PageInfo.HasNextPage,
			HasPreviousPage: res.PageInfo.HasPreviousPage,
			StartCursor:     res.PageInfo.StartCursor,
			EndCursor:       res.PageInfo.EndCursor,
		},
	})
}

// Query handles POST /v1/query/{entity}. It returns the document a search
// would send without executing it.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequest(w, r)
	if !ok {
		return
	}

	prepared, err := s.search.Prepare(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	body, err := prepared.Doc.MarshalJSON()
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("marshal query: %w", err))
		return
	}

	setEmbeddingHeaders(w, prepared.Embedding)
	writeJSON(w, http.StatusOK, QueryResponse{
		Entity:    prepared.Entity,
		Index:     prepared.Index,
		CountOnly: prepared.CountOnly,
		Query:     body,
	})
}

// PutLabels handles POST /v1/labels.
func (s *Server) PutLabels(w http.ResponseWriter, r *http.Request) {
	var req LabelsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Labels) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "labels must not be empty")
		return
	}

	if err := s.labels.Put(r.Context(), req.Labels...); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LabelsResponse{Indexed: len(req.Labels)})
}

// DeleteLabel handles DELETE /v1/labels/{name}?id=&project_id=&group_id=.
func (s *Server) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	l := label.Label{Name: chi.URLParam(r, "name")}
	query := r.URL.Query()

	var projectID, groupID *int64
	for _, p := range []struct {
		name     string
		required bool
		dest     any
	}{
		{"id", true, &l.ID},
		{"project_id", false, &projectID},
		{"group_id", false, &groupID},
	} {
		if err := runtime.BindQueryParameter("form", true, p.required, p.name, query, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest,
				fmt.Sprintf("Invalid format for parameter %s: %s", p.name, err))
			return
		}
	}
	if projectID != nil {
		l.ProjectID = *projectID
	}
	if groupID != nil {
		l.GroupID = *groupID
	}

	if err := s.labels.Delete(r.Context(), l); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter period: "+err.Error())
		return
	}
	period := usageuc.PeriodDay
	if raw != nil {
		p, err := usageuc.ParsePeriod(*raw)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		period = p
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:          string(report.Period),
		PeriodStartAt:   report.PeriodStart,
		PeriodEndAt:     report.PeriodEnd,
		Provider:        report.Provider,
		TokensLimit:     report.TokensLimit,
		TokensUsed:      report.TokensUsed,
		TokensRemaining: report.TokensRemaining,
		IsExhausted:     report.Exhausted,
	})
}

// HealthCheck handles GET /health. Only an unreachable search engine makes
// the service unavailable.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequest decodes the entity, page parameters and body shared by
// Search and Query. It writes the error response itself and reports false on failure.
func (s *Server) searchRequest(w http.ResponseWriter, r *http.Request) (searchuc.Request, bool) {
	page, err := bindPage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		return searchuc.Request{}, false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return searchuc.Request{}, false
	}

	var envelope principalEnvelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
			return searchuc.Request{}, false
		}
	}

	return searchuc.Request{
		Entity: chi.URLParam(r, "entity"),
		Env:    s.env(r, envelope.Principal),
		Body:   body,
		Page:   page,
	}, true
}

func (s *Server) env(r *http.Request, user *authz.User) builders.Env {
	env := builders.Env{
		TextMode:         s.settings.TextMode,
		KNN:              s.settings.KNN,
		VectorsSupported: s.settings.VectorsSupported,
	}
	// A nil *authz.User must stay a nil interface so anonymous checks hold.
	if user != nil {
		env.Principal = *user
	} else {
		env.KNN.ThrottleKey = "anonymous:" + clientHost(r)
	}
	return env
}

func bindPage(r *http.Request) (searchuc.Page, error) {
	var (
		page          searchuc.Page
		first, last   *int
		before, after *string
	)
	query := r.URL.Query()
	for _, p := range []struct {
		name string
		dest any
	}{
		{"first", &first},
		{"last", &last},
		{"before", &before},
		{"after", &after},
	} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			return page, fmt.Errorf("invalid format for parameter %s: %w", p.name, err)
		}
	}

	if first != nil {
		page.First = *first
	}
	if last != nil {
		page.Last = *last
	}
	if before != nil {
		page.Before = *before
	}
	if after != nil {
		page.After = *after
	}
	return page, nil
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setEmbeddingHeaders(w http.ResponseWriter, usage domain.EmbeddingUsage) {
	if usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
	if usage.Degraded {
		w.Header().Set("X-Embedding-Degraded", "true")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidCursor,
		domain.ErrUnknownEntity,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrSearchEngine,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// argumentHandler reports the offending option; its message carries no internals.
func argumentHandler(w http.ResponseWriter, err error, _ string) bool {
	var argErr *domain.ArgumentError
	if !errors.As(err, &argErr) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, argErr.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
