// Package source defines the adapter capability contract and the registry
// that maps source ids to adapters and their operating policies.
package source

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// Adapter is a source-specific connector exposing a uniform search
// capability. Implementations must honor ctx cancellation; the fan-out
// executor additionally enforces the timeout externally, so a hung adapter
// cannot stall result collection.
type Adapter interface {
	Search(ctx context.Context, query string, languages []string, maxResults int) ([]result.Raw, error)
}

// Policy is the per-source operating policy recorded at registration time.
type Policy struct {
	// Timeout bounds a single adapter invocation.
	Timeout time.Duration
	// MaxConcurrent caps simultaneous calls to this source across
	// overlapping requests. Zero means DefaultMaxConcurrent.
	MaxConcurrent int
	// RequestsPerSecond rate-limits calls to this source. Zero disables
	// rate limiting.
	RequestsPerSecond float64
	// Enabled gates the source administratively.
	Enabled bool
}

// Policy defaults.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultMaxConcurrent = 4
)

func (p Policy) withDefaults() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = DefaultMaxConcurrent
	}
	return p
}

// Resolved is one registry entry handed to the fan-out executor. The
// semaphore and limiter are shared across overlapping requests, so the
// per-source caps hold globally, not per fan-out.
type Resolved struct {
	ID      string
	Adapter Adapter
	Policy  Policy

	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// Acquire claims a per-source concurrency slot, waiting up to the given
// budget. It returns false when the slot could not be claimed in time.
func (r *Resolved) Acquire(ctx context.Context, wait time.Duration) bool {
	if wait <= 0 {
		return r.sem.TryAcquire(1)
	}
	actx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return r.sem.Acquire(actx, 1) == nil
}

// Release returns a previously acquired concurrency slot.
func (r *Resolved) Release() { r.sem.Release(1) }

// AllowRate reports whether the per-source rate limiter admits one more
// call right now. Always true when no rate limit is configured.
func (r *Resolved) AllowRate() bool {
	if r.limiter == nil {
		return true
	}
	return r.limiter.Allow()
}
