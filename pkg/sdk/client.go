package searchkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbElastic "github.com/kailas-cloud/searchkit/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/searchkit/internal/db/redis"
	"github.com/kailas-cloud/searchkit/internal/domain"
	labelrepo "github.com/kailas-cloud/searchkit/internal/repository/label"
	"github.com/kailas-cloud/searchkit/internal/search/builders"
	"github.com/kailas-cloud/searchkit/internal/search/queries"
	healthuc "github.com/kailas-cloud/searchkit/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchkit/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced in tests.
type searchUseCase interface {
	Search(ctx context.Context, req searchuc.Request) (*searchuc.Result, error)
	Prepare(ctx context.Context, req searchuc.Request) (*searchuc.Prepared, error)
}

type labelUseCase interface {
	Put(ctx context.Context, labels ...labelrepo.Label) error
	Delete(ctx context.Context, l labelrepo.Label) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the searchkit SDK entry point.
type Client struct {
	engine    pinger
	store     *dbRedis.Store
	searchSvc searchUseCase
	labelSvc  labelUseCase
	healthSvc healthUseCase
	settings  settings
	obs       *observer
}

// settings are applied to every build.
type settings struct {
	textMode         queries.TextMode
	knn              queries.KNNOptions
	vectorsSupported bool
}

// New creates a Client. The provided context is used for the Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.esAddrs) == 0 {
		return nil, errors.New("searchkit: elasticsearch address required (use WithElasticsearch)")
	}

	engine, err := dbElastic.NewStore(dbElastic.Config{
		Addresses: cfg.esAddrs,
		Username:  cfg.esUsername,
		Password:  cfg.esPassword,
		Transport: cfg.esTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("searchkit: create elasticsearch client: %w", err)
	}

	var store *dbRedis.Store
	if len(cfg.redisAddrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("searchkit: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("searchkit: redis not ready: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return wireClient(engine, store, cfg, obs), nil
}

func wireClient(engine *dbElastic.Store, store *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	var deps builders.Deps
	var labels labelUseCase
	// Interfaces stay nil unless a store is configured.
	if store != nil {
		ls := labelrepo.New(store)
		deps.Labels = ls
		labels = ls
	}
	if cfg.embedder != nil {
		deps.Vectors = queries.KNNDeps{Embedder: &embedderAdapter{inner: cfg.embedder}}
	}

	registry := builders.NewRegistry(deps)
	searchSvc := searchuc.New(registry, engine, searchuc.Config{
		Indices:         indices(registry.Entities(), cfg.indices),
		DefaultPageSize: cfg.defaultPageSize,
		MaxPageSize:     cfg.maxPageSize,
	}, zap.NewNop())

	var kv healthuc.Pinger
	if store != nil {
		kv = store
	}

	return &Client{
		engine:    engine,
		store:     store,
		searchSvc: searchSvc,
		labelSvc:  labels,
		healthSvc: healthuc.New(engine, kv, nil),
		settings:  newSettings(cfg),
		obs:       obs,
	}
}

func newSettings(cfg *clientConfig) settings {
	s := settings{
		textMode:         queries.ModeMultiMatch,
		vectorsSupported: cfg.embedder != nil,
		knn:              queries.KNNOptions{Dimensions: cfg.dimensions},
	}
	if cfg.simpleQueryString {
		s.textMode = queries.ModeSimpleQueryString
	}
	return s
}

// indices maps every entity to an index of the same name unless overridden.
func indices(entities []string, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(entities))
	for _, e := range entities {
		out[e] = e
	}
	for e, idx := range overrides {
		out[e] = idx
	}
	return out
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks Elasticsearch connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search starts a search request for an entity such as "issues" or "projects".
func (c *Client) Search(entity string) *SearchBuilder {
	return &SearchBuilder{client: c, entity: entity, options: map[string]any{}}
}

// Labels returns the label index service.
func (c *Client) Labels() *LabelService {
	return &LabelService{svc: c.labelSvc, obs: c.obs}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
