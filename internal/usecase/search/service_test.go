package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seekerlab/deepsearch/internal/cache"
	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
	"github.com/seekerlab/deepsearch/internal/metrics"
	"github.com/seekerlab/deepsearch/internal/source"
)

type sinkRecorder struct {
	events chan domain.SearchEvent
	err    error
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{events: make(chan domain.SearchEvent, 8)}
}

func (s *sinkRecorder) Record(_ context.Context, ev domain.SearchEvent) error {
	s.events <- ev
	return s.err
}

type serviceFixture struct {
	registry *source.Registry
	sink     *sinkRecorder
	svc      *Service
}

func newFixture(t *testing.T, withCache bool) *serviceFixture {
	t.Helper()
	reg := source.NewRegistry()
	sink := newSinkRecorder()
	var c ResultCache
	if withCache {
		c = cache.New(time.Minute, 32)
	}
	svc := New(reg, c, NewExecutor(8, time.Second, 0), newMerger(), sink, nil)
	return &serviceFixture{registry: reg, sink: sink, svc: svc}
}

func countingAdapter(calls *atomic.Int64, src string, n int) source.Adapter {
	return &stubAdapter{fn: func(context.Context, string, []string, int) ([]result.Raw, error) {
		calls.Add(1)
		out := make([]result.Raw, 0, n)
		for i := range n {
			out = append(out, result.Raw{
				Title:    fmt.Sprintf("%s %d", src, i),
				URL:      fmt.Sprintf("https://%s.example/%d", src, i),
				SourceID: src,
				RawScore: float64(n - i),
			})
		}
		return out, nil
	}}
}

func TestSearch_Complete(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 2), source.Policy{Enabled: true})
	f.registry.Register("b", countingAdapter(&calls, "b", 3), source.Policy{Enabled: true})

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a", "b"}, 0, 0, 0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Status != StatusComplete {
		t.Errorf("Status = %s, want complete", resp.Status)
	}
	if resp.SearchID == "" {
		t.Error("SearchID is empty")
	}
	if resp.TotalResults != 5 || len(resp.Results) != 5 {
		t.Errorf("TotalResults = %d len = %d, want 5", resp.TotalResults, len(resp.Results))
	}
	if resp.FromCache {
		t.Error("first call should not be served from cache")
	}
	if len(resp.SourceErrors) != 0 {
		t.Errorf("SourceErrors = %v, want none", resp.SourceErrors)
	}
	if got := resp.RequestedSources; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("RequestedSources = %v", got)
	}
	for i := range resp.Results {
		if resp.Results[i].Rank() != i+1 {
			t.Errorf("Rank() = %d at %d", resp.Results[i].Rank(), i)
		}
	}
}

func TestSearch_PartialFailure(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("up", countingAdapter(&calls, "up", 2), source.Policy{Enabled: true})
	f.registry.Register("down", &stubAdapter{fn: func(context.Context, string, []string, int) ([]result.Raw, error) {
		return nil, errors.New("boom")
	}}, source.Policy{Enabled: true})

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"up", "down"}, 0, 0, 0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.Status != StatusPartial {
		t.Errorf("Status = %s, want partial", resp.Status)
	}
	if resp.TotalResults != 2 {
		t.Errorf("TotalResults = %d, want 2 from the healthy source", resp.TotalResults)
	}
	if msg := resp.SourceErrors["down"]; msg != "boom" {
		t.Errorf("SourceErrors[down] = %q, want boom", msg)
	}
}

func TestSearch_AllSourcesFail(t *testing.T) {
	f := newFixture(t, true)
	for _, id := range []string{"x", "y"} {
		f.registry.Register(id, &stubAdapter{fn: func(context.Context, string, []string, int) ([]result.Raw, error) {
			return nil, errors.New("unreachable")
		}}, source.Policy{Enabled: true})
	}

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"x", "y"}, 0, 0, 0))
	if err != nil {
		t.Fatalf("Search should degrade, not error: %v", err)
	}

	if resp.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", resp.Status)
	}
	if len(resp.Results) != 0 || resp.TotalResults != 0 {
		t.Errorf("expected no results, got %d", resp.TotalResults)
	}
	if len(resp.SourceErrors) != 2 {
		t.Errorf("SourceErrors = %v, want entries for both sources", resp.SourceErrors)
	}
}

func TestSearch_NoUsableSources(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Search(context.Background(), mustRequest(t, []string{"ghost"}, 0, 0, 0))
	if !errors.Is(err, domain.ErrNoUsableSources) {
		t.Fatalf("err = %v, want ErrNoUsableSources", err)
	}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Error("ErrNoUsableSources should match ErrInvalidRequest")
	}
}

func TestSearch_ResolveErrorsDoNotDemoteStatus(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("real", countingAdapter(&calls, "real", 1), source.Policy{Enabled: true})
	f.registry.Register("off", countingAdapter(&calls, "off", 1), source.Policy{Enabled: false})

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"real", "off", "ghost"}, 0, 0, 0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Unknown and disabled ids are reported but the resolvable source
	// succeeded, so the response is still complete.
	if resp.Status != StatusComplete {
		t.Errorf("Status = %s, want complete", resp.Status)
	}
	if resp.SourceErrors["ghost"] == "" || resp.SourceErrors["off"] == "" {
		t.Errorf("SourceErrors = %v, want entries for ghost and off", resp.SourceErrors)
	}
}

func TestSearch_ServesRepeatFromCache(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 3), source.Policy{Enabled: true})

	req := mustRequest(t, []string{"a"}, 0, 0, 0)
	first, err := f.svc.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Search(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("adapter called %d times, want 1", got)
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache = %v then %v, want false then true", first.FromCache, second.FromCache)
	}
	if first.SearchID == second.SearchID {
		t.Error("each call should mint its own search id")
	}
}

func TestSearch_PaginationFromCachedSet(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 25), source.Policy{Enabled: true})

	page1, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 25, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	page3, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 25, 3, 10))
	if err != nil {
		t.Fatal(err)
	}

	// Page selection is not part of the fingerprint: page 3 reuses the
	// cached merged set instead of fanning out again.
	if got := calls.Load(); got != 1 {
		t.Errorf("adapter called %d times, want 1", got)
	}
	if page1.TotalPages != 3 || page3.TotalPages != 3 {
		t.Errorf("TotalPages = %d/%d, want 3", page1.TotalPages, page3.TotalPages)
	}
	if len(page1.Results) != 10 || len(page3.Results) != 5 {
		t.Errorf("page lengths = %d/%d, want 10 and 5", len(page1.Results), len(page3.Results))
	}
	if !page3.FromCache {
		t.Error("page 3 should be served from cache")
	}
}

func TestSearch_PageOutOfRange(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 3), source.Policy{Enabled: true})

	_, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 0, 7, 10))
	if !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Fatalf("err = %v, want ErrPageOutOfRange", err)
	}
}

func TestSearch_EmitsHistoryEvent(t *testing.T) {
	f := newFixture(t, true)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 2), source.Policy{Enabled: true})

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-f.sink.events:
		if ev.SearchID != resp.SearchID {
			t.Errorf("event SearchID = %q, want %q", ev.SearchID, resp.SearchID)
		}
		if ev.Query != "golang concurrency" || ev.Status != string(StatusComplete) {
			t.Errorf("event = %+v", ev)
		}
		if ev.ResultsCount != resp.TotalResults {
			t.Errorf("event ResultsCount = %d, want %d", ev.ResultsCount, resp.TotalResults)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event Timestamp is zero")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event recorded")
	}
}

func TestSearch_SinkErrorIsSwallowed(t *testing.T) {
	f := newFixture(t, true)
	f.sink.err = errors.New("sink down")
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 1), source.Policy{Enabled: true})

	resp, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 0, 0, 0))
	if err != nil {
		t.Fatalf("sink failure must not surface: %v", err)
	}
	if resp.Status != StatusComplete {
		t.Errorf("Status = %s, want complete", resp.Status)
	}
	<-f.sink.events
}

func TestSearch_NilCacheComputesEachTime(t *testing.T) {
	f := newFixture(t, false)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 2), source.Policy{Enabled: true})

	req := mustRequest(t, []string{"a"}, 0, 0, 0)
	for range 2 {
		resp, err := f.svc.Search(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.FromCache {
			t.Error("nil cache must never report a hit")
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("adapter called %d times, want 2", got)
	}
}

func TestSearch_NilCacheRecordsNoCacheLookups(t *testing.T) {
	f := newFixture(t, false)
	var calls atomic.Int64
	f.registry.Register("a", countingAdapter(&calls, "a", 1), source.Policy{Enabled: true})

	hits := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("miss"))

	if _, err := f.svc.Search(context.Background(), mustRequest(t, []string{"a"}, 0, 0, 0)); err != nil {
		t.Fatal(err)
	}

	// With the cache disabled there is no lookup to observe; counting every
	// request as a miss would skew the hit ratio.
	if got := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("hit")); got != hits {
		t.Errorf("hit counter moved from %v to %v", hits, got)
	}
	if got := testutil.ToFloat64(metrics.SearchCacheTotal.WithLabelValues("miss")); got != misses {
		t.Errorf("miss counter moved from %v to %v", misses, got)
	}
}
