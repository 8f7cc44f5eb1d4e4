package search

import (
	"context"

	"github.com/seekerlab/deepsearch/internal/cache"
	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/source"
)

// SourceResolver maps requested source ids to registered adapters.
type SourceResolver interface {
	Resolve(ids []string) ([]*source.Resolved, map[string]string)
}

// ResultCache coalesces identical concurrent requests onto one computation.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute cache.ComputeFunc) (*cache.Entry, bool, error)
}

// EventSink receives one append-only event per completed search. The
// orchestrator never blocks on it and swallows its errors.
type EventSink interface {
	Record(ctx context.Context, ev domain.SearchEvent) error
}
