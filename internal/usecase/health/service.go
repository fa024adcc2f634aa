// Package health aggregates dependency checks for the health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates searches still run but without caching, label
	// resolution or vector search.
	Degraded Status = "degraded"
	// Unhealthy indicates searches cannot run.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentSearchEngine = "search_engine"
	ComponentKVStore      = "kv_store"
	ComponentEmbedding    = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine    Pinger
	kv        Pinger
	embedding EmbeddingChecker
}

// New creates a Service. kv and embedding can be nil.
func New(engine, kv Pinger, embedding EmbeddingChecker) *Service {
	return &Service{engine: engine, kv: kv, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		ComponentSearchEngine: result(s.engine.Ping(ctx)),
	}
	if s.kv != nil {
		checks[ComponentKVStore] = result(s.kv.Ping(ctx))
	}
	if s.embedding != nil {
		checks[ComponentEmbedding] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentSearchEngine] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
