package source

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

type stubAdapter struct{ id string }

func (s *stubAdapter) Search(_ context.Context, _ string, _ []string, _ int) ([]result.Raw, error) {
	return nil, nil
}

func TestResolve_PreservesRequestOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{id: "a"}, Policy{Enabled: true})
	reg.Register("b", &stubAdapter{id: "b"}, Policy{Enabled: true})
	reg.Register("c", &stubAdapter{id: "c"}, Policy{Enabled: true})

	resolved, errs := reg.Resolve([]string{"c", "a", "b"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"c", "a", "b"}
	if len(resolved) != len(want) {
		t.Fatalf("resolved %d entries, want %d", len(resolved), len(want))
	}
	for i, id := range want {
		if resolved[i].ID != id {
			t.Errorf("resolved[%d].ID = %q, want %q", i, resolved[i].ID, id)
		}
	}
}

func TestResolve_ReportsUnknownAndDisabled(t *testing.T) {
	reg := NewRegistry()
	reg.Register("live", &stubAdapter{}, Policy{Enabled: true})
	reg.Register("off", &stubAdapter{}, Policy{Enabled: false})

	resolved, errs := reg.Resolve([]string{"live", "off", "ghost"})
	if len(resolved) != 1 || resolved[0].ID != "live" {
		t.Fatalf("resolved = %v, want only live", resolved)
	}
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want entries for off and ghost", errs)
	}
	if _, ok := errs["off"]; !ok {
		t.Error("missing error for disabled source")
	}
	if _, ok := errs["ghost"]; !ok {
		t.Error("missing error for unknown source")
	}
}

func TestResolve_AllUnusable(t *testing.T) {
	reg := NewRegistry()
	reg.Register("off", &stubAdapter{}, Policy{Enabled: false})

	resolved, errs := reg.Resolve([]string{"off", "ghost"})
	if len(resolved) != 0 {
		t.Fatalf("resolved = %v, want empty", resolved)
	}
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want 2 entries", errs)
	}
}

func TestSetEnabled(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{}, Policy{Enabled: true})

	if ok := reg.SetEnabled("a", false); !ok {
		t.Fatal("SetEnabled returned false for known source")
	}
	if _, errs := reg.Resolve([]string{"a"}); len(errs) != 1 {
		t.Error("disabled source still resolves")
	}

	if ok := reg.SetEnabled("missing", false); ok {
		t.Error("SetEnabled returned true for unknown source")
	}
}

func TestRegister_AppliesPolicyDefaults(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{}, Policy{Enabled: true})

	resolved, _ := reg.Resolve([]string{"a"})
	if resolved[0].Policy.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", resolved[0].Policy.Timeout, DefaultTimeout)
	}
	if resolved[0].Policy.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", resolved[0].Policy.MaxConcurrent, DefaultMaxConcurrent)
	}
}

func TestAcquire_FailFastWhenSaturated(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{}, Policy{Enabled: true, MaxConcurrent: 1})
	resolved, _ := reg.Resolve([]string{"a"})
	entry := resolved[0]

	if !entry.Acquire(context.Background(), 0) {
		t.Fatal("first acquire failed")
	}
	if entry.Acquire(context.Background(), 0) {
		t.Fatal("second acquire succeeded past MaxConcurrent=1")
	}
	entry.Release()
	if !entry.Acquire(context.Background(), 0) {
		t.Fatal("acquire failed after release")
	}
	entry.Release()
}

func TestAcquire_WaitsForSlot(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{}, Policy{Enabled: true, MaxConcurrent: 1})
	resolved, _ := reg.Resolve([]string{"a"})
	entry := resolved[0]

	if !entry.Acquire(context.Background(), 0) {
		t.Fatal("first acquire failed")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	got := false
	go func() {
		defer wg.Done()
		got = entry.Acquire(context.Background(), time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	entry.Release()
	wg.Wait()

	if !got {
		t.Fatal("queued acquire did not obtain the released slot")
	}
	entry.Release()
}

func TestResolve_SnapshotUnaffectedByLaterRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", &stubAdapter{}, Policy{Enabled: true})

	resolved, _ := reg.Resolve([]string{"a"})
	reg.Register("b", &stubAdapter{}, Policy{Enabled: true})

	// The earlier snapshot still points at a valid entry.
	if resolved[0].ID != "a" {
		t.Errorf("snapshot entry = %q, want a", resolved[0].ID)
	}
	if len(reg.IDs()) != 2 {
		t.Errorf("IDs() = %v, want 2 entries", reg.IDs())
	}
}
