package searchkit

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esAddrs     []string
	esUsername  string
	esPassword  string
	esTransport http.RoundTripper

	redisAddrs    []string
	redisPassword string

	indices map[string]string

	embedder   Embedder
	dimensions int

	simpleQueryString bool
	defaultPageSize   int
	maxPageSize       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the Elasticsearch node addresses. Required.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddrs = append(c.esAddrs, addrs...)
	})
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUsername = username
		c.esPassword = password
	})
}

// WithTransport replaces the HTTP transport used for Elasticsearch.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.esTransport = rt
	})
}

// WithRedis connects the label index. Without it, searches that filter by
// label name fail with ErrInvalidArgument.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithIndex maps an entity to the index holding its documents.
func WithIndex(entity, index string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.indices == nil {
			c.indices = make(map[string]string)
		}
		c.indices[entity] = index
	})
}

// WithEmbedder enables vector clauses in text searches.
// dimensions, when positive, drops embeddings of any other length.
func WithEmbedder(e Embedder, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.dimensions = dimensions
	})
}

// WithSimpleQueryString matches free text with simple_query_string instead of multi_match.
func WithSimpleQueryString() Option {
	return optionFunc(func(c *clientConfig) {
		c.simpleQueryString = true
	})
}

// WithPageSize sets the default and maximum page sizes.
// Defaults: 20 and 100.
func WithPageSize(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
