package search

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seekerlab/deepsearch/internal/cache"
	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/request"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
	"github.com/seekerlab/deepsearch/internal/logger"
	"github.com/seekerlab/deepsearch/internal/metrics"
	"github.com/seekerlab/deepsearch/internal/source"
)

// Status is the aggregate response status.
type Status string

// Aggregate response statuses.
const (
	// StatusComplete means every requested, resolvable source succeeded.
	StatusComplete Status = "complete"
	// StatusPartial means at least one source succeeded and at least one failed.
	StatusPartial Status = "partial"
	// StatusFailed means no source succeeded; SourceErrors explains why.
	StatusFailed Status = "failed"
)

// Response is the outward-facing result envelope for one search call.
type Response struct {
	SearchID         string
	Status           Status
	Results          []result.Merged
	TotalResults     int
	TotalPages       int
	Page             int
	PageSize         int
	RequestedSources []string
	SourceErrors     map[string]string
	Duration         time.Duration
	FromCache        bool
}

const sinkTimeout = 5 * time.Second

// Service is the search aggregation orchestrator: fingerprint, cache
// lookup, fan-out, merge, paginate, assemble, emit history event.
type Service struct {
	registry SourceResolver
	cache    ResultCache
	executor *Executor
	merger   *Merger
	sink     EventSink
	logger   *zap.Logger
}

// New creates the orchestrator. cache and sink may be nil: a nil cache
// computes every request directly, a nil sink drops events.
func New(
	registry SourceResolver,
	resultCache ResultCache,
	executor *Executor,
	merger *Merger,
	sink EventSink,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		registry: registry,
		cache:    resultCache,
		executor: executor,
		merger:   merger,
		sink:     sink,
		logger:   log,
	}
}

// Search runs one aggregated search. Per-source failures degrade into the
// response status and error map; only invalid requests return an error.
func (s *Service) Search(ctx context.Context, req *request.Request) (*Response, error) {
	start := time.Now()

	resolved, resolveErrs := s.registry.Resolve(req.Sources())
	if len(resolved) == 0 {
		return nil, domain.ErrNoUsableSources
	}

	compute := func(cctx context.Context) (*cache.Entry, error) {
		return s.computeEntry(cctx, req, resolved), nil
	}

	var (
		entry     *cache.Entry
		fromCache bool
	)
	if s.cache != nil {
		var err error
		entry, fromCache, err = s.cache.GetOrCompute(ctx, req.Fingerprint(), compute)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Cache malfunction is soft: fall back to direct computation.
			// No hit/miss observation either way, the lookup never finished.
			logger.FromContext(ctx).Warn("result cache failed, bypassing", zap.Error(err))
			entry, _ = compute(ctx)
		} else {
			metrics.ObserveCacheLookup(fromCache)
		}
	} else {
		entry, _ = compute(ctx)
	}

	pageResults, totalPages, err := paginate(entry.Results, req.Page(), req.PageSize())
	if err != nil {
		return nil, err
	}

	sourceErrors := make(map[string]string, len(resolveErrs)+len(entry.SourceErrors))
	for id, msg := range resolveErrs {
		sourceErrors[id] = msg
	}
	for id, msg := range entry.SourceErrors {
		sourceErrors[id] = msg
	}

	resp := &Response{
		SearchID:         uuid.NewString(),
		Status:           deriveStatus(len(entry.Succeeded), len(entry.SourceErrors)),
		Results:          pageResults,
		TotalResults:     len(entry.Results),
		TotalPages:       totalPages,
		Page:             req.Page(),
		PageSize:         req.PageSize(),
		RequestedSources: req.Sources(),
		SourceErrors:     sourceErrors,
		Duration:         time.Since(start),
		FromCache:        fromCache,
	}
	metrics.SearchesTotal.WithLabelValues(string(resp.Status)).Inc()

	s.emitEvent(ctx, req, resp)
	return resp, nil
}

// computeEntry runs the fan-out and merge for one cache miss. It never
// fails: per-source failures land in the entry's error map.
func (s *Service) computeEntry(
	ctx context.Context, req *request.Request, resolved []*source.Resolved,
) *cache.Entry {
	outcomes := s.executor.Execute(ctx, req, resolved)

	sourceErrors := map[string]string{}
	var succeeded []string
	for id, o := range outcomes {
		if f := o.Failure(); f != nil {
			sourceErrors[id] = f.Message
		} else {
			succeeded = append(succeeded, id)
		}
	}
	sort.Strings(succeeded)

	return &cache.Entry{
		Results:      s.merger.Merge(outcomes, req.Sources()),
		SourceErrors: sourceErrors,
		Succeeded:    succeeded,
	}
}

// deriveStatus folds per-source fan-out outcomes into the aggregate status.
// Resolve-time errors (unknown/disabled ids) are reported in the error map
// but do not demote an otherwise complete response.
func deriveStatus(succeeded, failed int) Status {
	switch {
	case failed == 0:
		return StatusComplete
	case succeeded > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// emitEvent fires the history event without blocking the response path.
// Sink failure is logged and swallowed.
func (s *Service) emitEvent(ctx context.Context, req *request.Request, resp *Response) {
	if s.sink == nil {
		return
	}
	ev := domain.SearchEvent{
		SearchID:     resp.SearchID,
		Query:        req.Query(),
		Mode:         string(req.Mode()),
		Languages:    req.Languages(),
		Sources:      req.Sources(),
		Status:       string(resp.Status),
		ResultsCount: resp.TotalResults,
		DurationMs:   resp.Duration.Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
	log := logger.FromContext(ctx)
	go func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()
		if err := s.sink.Record(sctx, ev); err != nil {
			log.Warn("failed to record search event",
				zap.String("search_id", ev.SearchID), zap.Error(err))
		}
	}()
}
