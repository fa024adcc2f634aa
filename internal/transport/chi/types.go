package chi

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/searchkit/internal/domain/authz"
	"github.com/kailas-cloud/searchkit/internal/repository/label"
)

// ErrorResponseCode is the machine-readable error identifier returned to clients.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest              ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized            ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed        ErrorResponseCode = "validation_failed"
	ErrorResponseCodeInvalidCursor           ErrorResponseCode = "invalid_cursor"
	ErrorResponseCodeUnknownEntity           ErrorResponseCode = "unknown_entity"
	ErrorResponseCodeNotFound                ErrorResponseCode = "not_found"
	ErrorResponseCodeRateLimited             ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingQuotaExceeded  ErrorResponseCode = "embedding_quota_exceeded"
	ErrorResponseCodeEmbeddingProviderError  ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeSearchEngineUnavailable ErrorResponseCode = "search_engine_error"
	ErrorResponseCodeInternalError           ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// principalEnvelope picks the caller identity out of a search body. The
// remaining keys are the entity's options.
type principalEnvelope struct {
	Principal *authz.User `json:"principal"`
}

// SearchHit is one ranked document.
type SearchHit struct {
	ID             string              `json:"id"`
	Score          float64             `json:"score"`
	Source         json.RawMessage     `json:"source,omitempty"`
	Highlight      map[string][]string `json:"highlight,omitempty"`
	MatchedQueries []string            `json:"matched_queries,omitempty"`
	Cursor         string              `json:"cursor,omitempty"`
}

// PageInfo describes the window a page covers.
type PageInfo struct {
	HasNextPage     bool   `json:"has_next_page"`
	HasPreviousPage bool   `json:"has_previous_page"`
	StartCursor     string `json:"start_cursor,omitempty"`
	EndCursor       string `json:"end_cursor,omitempty"`
}

// SearchResponse is returned by POST /v1/search/{entity}.
type SearchResponse struct {
	Entity        string      `json:"entity"`
	Total         int         `json:"total"`
	TotalRelation string      `json:"total_relation,omitempty"`
	Items         []SearchHit `json:"items"`
	PageInfo      PageInfo    `json:"page_info"`
}

// QueryResponse is returned by POST /v1/query/{entity}.
type QueryResponse struct {
	Entity    string          `json:"entity"`
	Index     string          `json:"index"`
	CountOnly bool            `json:"count_only"`
	Query     json.RawMessage `json:"query"`
}

// LabelsRequest is the body of POST /v1/labels.
type LabelsRequest struct {
	Labels []label.Label `json:"labels"`
}

// LabelsResponse acknowledges indexed labels.
type LabelsResponse struct {
	Indexed int `json:"indexed"`
}

// UsageResponse is returned by GET /v1/usage.
type UsageResponse struct {
	Period          string    `json:"period"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	PeriodEndAt     time.Time `json:"period_end_at"`
	Provider        string    `json:"provider,omitempty"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
