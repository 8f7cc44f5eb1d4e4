package outcome

import (
	"time"

	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// FailureKind classifies a per-source failure.
type FailureKind string

// Per-source failure kinds. None of them is fatal to the aggregate response.
const (
	FailureTimeout      FailureKind = "timeout"
	FailureAdapterError FailureKind = "adapter_error"
	FailureThrottled    FailureKind = "throttled"
)

// Failure describes why one adapter invocation produced no results.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Outcome is the result of exactly one adapter invocation: either an ordered
// result list or a failure, never both.
type Outcome struct {
	results []result.Raw
	failure *Failure
	elapsed time.Duration
}

// Success builds a successful outcome.
func Success(results []result.Raw, elapsed time.Duration) Outcome {
	return Outcome{results: results, elapsed: elapsed}
}

// Fail builds a failed outcome.
func Fail(kind FailureKind, message string, elapsed time.Duration) Outcome {
	return Outcome{failure: &Failure{Kind: kind, Message: message}, elapsed: elapsed}
}

// OK reports whether the invocation succeeded.
func (o *Outcome) OK() bool { return o.failure == nil }

// Results returns the ordered result list (nil on failure).
func (o *Outcome) Results() []result.Raw { return o.results }

// Failure returns the failure details (nil on success).
func (o *Outcome) Failure() *Failure { return o.failure }

// Elapsed returns how long the invocation took.
func (o *Outcome) Elapsed() time.Duration { return o.elapsed }
