// Package deepsearch is the embedded SDK: it wires the search orchestrator
// in-process, without the HTTP layer.
package deepsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seekerlab/deepsearch/internal/cache"
	"github.com/seekerlab/deepsearch/internal/db"
	dbRedis "github.com/seekerlab/deepsearch/internal/db/redis"
	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/mode"
	"github.com/seekerlab/deepsearch/internal/domain/search/request"
	historyrepo "github.com/seekerlab/deepsearch/internal/repository/history"
	"github.com/seekerlab/deepsearch/internal/source"
	"github.com/seekerlab/deepsearch/internal/source/duckduckgo"
	"github.com/seekerlab/deepsearch/internal/usecase/analyze"
	searchuc "github.com/seekerlab/deepsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Adapter is a source connector pluggable into the client. It matches the
// internal adapter contract so custom sources drop straight in.
type Adapter = source.Adapter

// SourcePolicy is the per-source operating policy.
type SourcePolicy struct {
	Timeout           time.Duration
	MaxConcurrent     int
	RequestsPerSecond float64
}

type clientConfig struct {
	sources        []sourceEntry
	redisAddrs     []string
	redisPassword  string
	historyEvents  int
	cacheTTL       time.Duration
	cacheEntries   int
	cacheDisabled  bool
	workers        int
	globalTimeout  time.Duration
	trackingParams []string
	logger         *zap.Logger
}

type sourceEntry struct {
	id      string
	adapter Adapter
	policy  SourcePolicy
}

// Option configures the client.
type Option func(*clientConfig)

// WithSource registers a custom source adapter.
func WithSource(id string, adapter Adapter, policy SourcePolicy) Option {
	return func(c *clientConfig) {
		c.sources = append(c.sources, sourceEntry{id: id, adapter: adapter, policy: policy})
	}
}

// WithDuckDuckGo registers the built-in DuckDuckGo connector.
func WithDuckDuckGo(policy SourcePolicy) Option {
	return WithSource(duckduckgo.SourceID, duckduckgo.New(), policy)
}

// WithRedis enables search history persistence.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisPassword = password
	}
}

// WithHistorySize caps the retained history event count.
func WithHistorySize(n int) Option {
	return func(c *clientConfig) { c.historyEvents = n }
}

// WithCache overrides the result cache TTL and capacity.
func WithCache(ttl time.Duration, maxEntries int) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
		c.cacheEntries = maxEntries
	}
}

// WithoutCache disables the result cache entirely.
func WithoutCache() Option {
	return func(c *clientConfig) { c.cacheDisabled = true }
}

// WithWorkers sets the fan-out worker pool size and global timeout.
func WithWorkers(workers int, globalTimeout time.Duration) Option {
	return func(c *clientConfig) {
		c.workers = workers
		c.globalTimeout = globalTimeout
	}
}

// WithTrackingParams extends the URL-normalization denylist.
func WithTrackingParams(params ...string) Option {
	return func(c *clientConfig) { c.trackingParams = params }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// Client is the deepsearch SDK entry point.
type Client struct {
	store    db.Store
	registry *source.Registry
	search   *searchuc.Service
	analyzer *analyze.Analyzer
	history  *historyrepo.Store
	// defaultSources is the registration order, used when a search names
	// no sources. Registration order doubles as merge priority order.
	defaultSources []string
}

// New creates a Client. At least one source is required; Redis is optional
// and only backs the history log.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.sources) == 0 {
		return nil, errors.New("deepsearch: at least one source required (use WithDuckDuckGo or WithSource)")
	}

	registry := source.NewRegistry()
	defaultSuggested := make([]string, 0, len(cfg.sources))
	for _, e := range cfg.sources {
		registry.Register(e.id, e.adapter, source.Policy{
			Timeout:           e.policy.Timeout,
			MaxConcurrent:     e.policy.MaxConcurrent,
			RequestsPerSecond: e.policy.RequestsPerSecond,
			Enabled:           true,
		})
		defaultSuggested = append(defaultSuggested, e.id)
	}

	var store db.Store
	var historyStore *historyrepo.Store
	var sink searchuc.EventSink
	if len(cfg.redisAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.redisAddrs,
			Password: cfg.redisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("deepsearch: create redis store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("deepsearch: database not ready: %w", err)
		}
		store = s

		var hopts []historyrepo.Option
		if cfg.historyEvents > 0 {
			hopts = append(hopts, historyrepo.WithMaxLen(cfg.historyEvents))
		}
		historyStore = historyrepo.New(s, hopts...)
		sink = historyStore
	}

	var resultCache searchuc.ResultCache
	if !cfg.cacheDisabled {
		resultCache = cache.New(cfg.cacheTTL, cfg.cacheEntries)
	}

	executor := searchuc.NewExecutor(cfg.workers, cfg.globalTimeout, 0)

	tracking := searchuc.DefaultTrackingParams
	tracking = append(tracking[:len(tracking):len(tracking)], cfg.trackingParams...)
	merger := searchuc.NewMerger(searchuc.NewURLNormalizer(tracking))

	return &Client{
		store:          store,
		registry:       registry,
		search:         searchuc.New(registry, resultCache, executor, merger, sink, cfg.logger),
		analyzer:       analyze.New(defaultSuggested, nil),
		history:        historyStore,
		defaultSources: defaultSuggested,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks history store connectivity. Always nil without Redis.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SearchParams describes one search call. Page and PageSize are pointers so
// leaving them nil means "first page, default size" while an explicit zero or
// negative value is rejected as invalid.
type SearchParams struct {
	Query      string
	Mode       string
	Languages  []string
	Sources    []string
	MaxResults int
	Page       *int
	PageSize   *int
}

// SearchResponse is the aggregated, ranked answer for one page.
type SearchResponse = searchuc.Response

// Search fans the query out to the configured sources and returns the merged,
// ranked page. Empty Sources means all registered sources, in registration
// order. Repeated identical requests are served from cache.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	sources := p.Sources
	if len(sources) == 0 {
		sources = c.defaultSources
	}
	page, pageSize := request.DefaultPage, request.DefaultPageSize
	if p.Page != nil {
		page = *p.Page
	}
	if p.PageSize != nil {
		pageSize = *p.PageSize
	}
	req, err := request.New(
		p.Query, mode.Mode(p.Mode), p.Languages, sources,
		p.MaxResults, page, pageSize,
	)
	if err != nil {
		return nil, err
	}
	return c.search.Search(ctx, &req)
}

// History returns the most recent search events, newest first. Without Redis
// it is always empty.
func (c *Client) History(ctx context.Context, limit int) ([]domain.SearchEvent, error) {
	if c.history == nil {
		return []domain.SearchEvent{}, nil
	}
	return c.history.Recent(ctx, limit)
}

// SetSourceEnabled flips the administrative gate of a registered source.
func (c *Client) SetSourceEnabled(id string, enabled bool) bool {
	return c.registry.SetEnabled(id, enabled)
}

// Sources returns all registered source ids.
func (c *Client) Sources() []string {
	return c.registry.IDs()
}

// Analyze inspects a query and returns routing hints.
func (c *Client) Analyze(query string) analyze.Analysis {
	return c.analyzer.Analyze(query)
}
