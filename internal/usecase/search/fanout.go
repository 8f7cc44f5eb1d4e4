package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/seekerlab/deepsearch/internal/domain/search/outcome"
	"github.com/seekerlab/deepsearch/internal/domain/search/request"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
	"github.com/seekerlab/deepsearch/internal/logger"
	"github.com/seekerlab/deepsearch/internal/metrics"
	"github.com/seekerlab/deepsearch/internal/source"
)

// Executor defaults.
const (
	DefaultWorkers       = 16
	DefaultGlobalTimeout = 15 * time.Second
)

// Executor fans one request out to the resolved adapters. Adapter calls run
// concurrently over a shared worker pool; one misbehaving source degrades to
// a per-source failure and never blocks collection of the others.
type Executor struct {
	pool          *semaphore.Weighted
	globalTimeout time.Duration
	// throttleWait is how long a call may queue for a per-source slot.
	// Zero means fail fast with a throttled outcome.
	throttleWait time.Duration
}

// NewExecutor creates an executor with a worker pool of the given size.
func NewExecutor(workers int, globalTimeout, throttleWait time.Duration) *Executor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if globalTimeout <= 0 {
		globalTimeout = DefaultGlobalTimeout
	}
	return &Executor{
		pool:          semaphore.NewWeighted(int64(workers)),
		globalTimeout: globalTimeout,
		throttleWait:  throttleWait,
	}
}

// Execute invokes every resolved adapter under its policy timeout and the
// executor's global ceiling, returning exactly one outcome per source id.
func (e *Executor) Execute(
	ctx context.Context, req *request.Request, resolved []*source.Resolved,
) map[string]outcome.Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.globalTimeout)
	defer cancel()

	outcomes := make(map[string]outcome.Outcome, len(resolved))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, entry := range resolved {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := e.invoke(ctx, req, entry)
			mu.Lock()
			outcomes[entry.ID] = o
			mu.Unlock()
		}()
	}
	wg.Wait()

	return outcomes
}

// invoke runs one adapter call: worker pool slot, per-source rate and
// concurrency limits, policy timeout. The adapter runs in its own goroutine
// so a non-cooperative one is abandoned at the deadline rather than awaited.
func (e *Executor) invoke(
	ctx context.Context, req *request.Request, entry *source.Resolved,
) outcome.Outcome {
	start := time.Now()
	log := logger.FromContext(ctx).With(zap.String("source", entry.ID))

	if err := e.pool.Acquire(ctx, 1); err != nil {
		return e.record(entry.ID, outcome.Fail(
			outcome.FailureTimeout, "timed out waiting for a worker", time.Since(start)))
	}
	defer e.pool.Release(1)

	if !entry.AllowRate() {
		return e.record(entry.ID, outcome.Fail(
			outcome.FailureThrottled, "source rate limit exceeded", time.Since(start)))
	}
	if !entry.Acquire(ctx, e.throttleWait) {
		return e.record(entry.ID, outcome.Fail(
			outcome.FailureThrottled, "source concurrency limit reached", time.Since(start)))
	}
	defer entry.Release()

	actx, cancel := context.WithTimeout(ctx, entry.Policy.Timeout)
	defer cancel()

	type reply struct {
		results []result.Raw
		err     error
	}
	ch := make(chan reply, 1)
	go func() {
		results, err := entry.Adapter.Search(actx, req.Query(), req.Languages(), req.MaxResults())
		ch <- reply{results: results, err: err}
	}()

	select {
	case r := <-ch:
		elapsed := time.Since(start)
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				return e.record(entry.ID, outcome.Fail(outcome.FailureTimeout, "source timed out", elapsed))
			}
			log.Warn("source adapter failed", zap.Error(r.err), zap.Duration("elapsed", elapsed))
			return e.record(entry.ID, outcome.Fail(outcome.FailureAdapterError, r.err.Error(), elapsed))
		}
		if len(r.results) > req.MaxResults() {
			r.results = r.results[:req.MaxResults()]
		}
		return e.record(entry.ID, outcome.Success(r.results, elapsed))
	case <-actx.Done():
		// Abandon the in-flight call; its goroutine drains into the
		// buffered channel whenever it finishes.
		log.Warn("source abandoned at deadline", zap.Duration("elapsed", time.Since(start)))
		return e.record(entry.ID, outcome.Fail(outcome.FailureTimeout, "source timed out", time.Since(start)))
	}
}

func (e *Executor) record(sourceID string, o outcome.Outcome) outcome.Outcome {
	status := "success"
	if f := o.Failure(); f != nil {
		status = string(f.Kind)
		metrics.SourceFailuresTotal.WithLabelValues(sourceID, string(f.Kind)).Inc()
	}
	metrics.SourceRequestDuration.WithLabelValues(sourceID, status).Observe(o.Elapsed().Seconds())
	return o
}
