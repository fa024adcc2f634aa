package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkit/internal/config"
	dbElastic "github.com/kailas-cloud/searchkit/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/searchkit/internal/db/redis"
	"github.com/kailas-cloud/searchkit/internal/domain"
	logpkg "github.com/kailas-cloud/searchkit/internal/logger"
	"github.com/kailas-cloud/searchkit/internal/metrics"
	budgetrepo "github.com/kailas-cloud/searchkit/internal/repository/budget"
	"github.com/kailas-cloud/searchkit/internal/repository/embcache"
	labelrepo "github.com/kailas-cloud/searchkit/internal/repository/label"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	chiTransport "github.com/kailas-cloud/searchkit/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/searchkit/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/searchkit/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/searchkit/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
	usageuc "github.com/kailas-cloud/searchkit/internal/usecase/usage"
	"github.com/kailas-cloud/searchkit/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchkit API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Strings("elasticsearch_addresses", cfg.Elasticsearch.Addresses),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	engine, err := dbElastic.NewStore(dbElastic.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create search engine client", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	textMode, err := queries.ParseTextMode(cfg.Search.TextMode)
	if err != nil {
		logger.Fatal("Invalid text mode", zap.Error(err))
	}

	knnCfg := cfg.Search.KNN
	settings := chiTransport.SearchSettings{
		TextMode: textMode,
		KNN: queries.KNNOptions{
			Field:         knnCfg.Field,
			Similarity:    knnCfg.Similarity,
			Boost:         knnCfg.Boost,
			K:             knnCfg.K,
			NumCandidates: knnCfg.NumCandidates,
			Dimensions:    cfg.Embedding.Vectorizer.Dimensions,
		},
		VectorsSupported: knnCfg.Enabled,
	}

	// Vector search is optional: without an embedder the knn clause is never built.
	var (
		vectors      queries.KNNDeps
		budget       *embeddinguc.BudgetTracker
		embedChecker healthuc.EmbeddingChecker
	)
	if knnCfg.Enabled {
		vecCfg := cfg.Embedding.Vectorizer
		provCfg := cfg.Embedding.Providers[vecCfg.Provider]

		budget = newBudgetTracker(ctx, vecCfg.Provider, provCfg.Budget, store, logger)

		// Pass nil interface (not typed nil pointer!) if budget is not configured.
		var budgetChecker embeddinguc.BudgetChecker
		if budget != nil {
			budgetChecker = budget
		}

		queryEmbedder := buildEmbedder(
			vecCfg.Provider, provCfg, vecCfg,
			time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
			store, budgetChecker, logger,
		)
		vectors = queries.KNNDeps{
			Embedder:  queryEmbedder,
			Throttler: embeddinguc.NewRateLimiter(knnCfg.RateLimitPerMinute, knnCfg.Burst),
			Tracker:   embeddinguc.NewDegradationTracker(metrics.KNNDegradedTotal, logger),
		}
		embedChecker = newEmbeddingHealthChecker(queryEmbedder)

		logger.Info("Query embedder created",
			zap.String("provider", vecCfg.Provider),
			zap.String("model", vecCfg.Model),
			zap.Int("dimensions", vecCfg.Dimensions),
			zap.Int("rate_limit_per_minute", knnCfg.RateLimitPerMinute),
		)
	}

	labels := labelrepo.New(store)
	registry := builders.NewRegistry(builders.Deps{
		Labels:  labels,
		Vectors: vectors,
	})

	searchSvc := searchuc.New(registry, engine, searchuc.Config{
		Indices:         cfg.Elasticsearch.Indices,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		TieBreaker:      cfg.Search.TieBreaker,
	}, logger)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	healthSvc := healthuc.New(engine, store, embedChecker)

	server := chiTransport.NewServer(searchSvc, labels, usageSvc, healthSvc, settings, logger)
	handler := server.Handler(
		jsonRecoverer(logger),
		chiMiddleware.RequestID,
		wideEventMiddleware(logger),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
		metrics.Middleware("/metrics"),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.Strings("entities", registry.Entities()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newBudgetTracker returns nil when the provider has no token limits.
func newBudgetTracker(
	ctx context.Context,
	provider string,
	cfg config.BudgetConfig,
	store *dbRedis.Store,
	logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if cfg.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(provider, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, logger)
	// TTLs exceed the period so counters survive until the period is over.
	return budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	cacheTTL time.Duration,
	store *dbRedis.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(base, store, embcache.Options{
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		TTL:        cacheTTL,
	}, metrics.EmbeddingCacheTotal, logger)

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provName, vecCfg.Model, budget, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if vecCfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, vecCfg.QueryInstruction)
	}
	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("embedding_tokens", ww.Header().Get("X-Embedding-Tokens")),
			)
		})
	}
}
