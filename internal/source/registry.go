package source

import (
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/seekerlab/deepsearch/internal/domain"
)

// Registry holds the adapter set keyed by source id. Registration happens
// once at boot and rarely after; lookups happen on every request. Register
// therefore copies the map (copy-on-write) so Resolve reads a consistent
// snapshot without holding the lock across adapter calls.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Resolved
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Resolved{}}
}

// Register adds or replaces an adapter under the given source id.
func (g *Registry) Register(id string, adapter Adapter, policy Policy) {
	policy = policy.withDefaults()

	var limiter *rate.Limiter
	if policy.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(policy.RequestsPerSecond), 1)
	}
	entry := &Resolved{
		ID:      id,
		Adapter: adapter,
		Policy:  policy,
		sem:     semaphore.NewWeighted(int64(policy.MaxConcurrent)),
		limiter: limiter,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	next := make(map[string]*Resolved, len(g.entries)+1)
	for k, v := range g.entries {
		next[k] = v
	}
	next[id] = entry
	g.entries = next
}

// SetEnabled flips the administrative gate of a registered source.
func (g *Registry) SetEnabled(id string, enabled bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.entries[id]
	if !ok {
		return false
	}
	next := make(map[string]*Resolved, len(g.entries))
	for k, v := range g.entries {
		next[k] = v
	}
	updated := *entry
	updated.Policy.Enabled = enabled
	next[id] = &updated
	g.entries = next
	return true
}

// IDs returns all registered source ids, enabled or not.
func (g *Registry) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.entries))
	for id := range g.entries {
		ids = append(ids, id)
	}
	return ids
}

// Resolve maps requested ids to registered adapters, preserving request
// order. Unknown or disabled ids are skipped and reported in the error map
// keyed by source id; they never abort resolution of the others.
func (g *Registry) Resolve(ids []string) ([]*Resolved, map[string]string) {
	g.mu.RLock()
	snapshot := g.entries
	g.mu.RUnlock()

	resolved := make([]*Resolved, 0, len(ids))
	errs := map[string]string{}
	for _, id := range ids {
		entry, ok := snapshot[id]
		if !ok {
			errs[id] = domain.ErrSourceUnknown.Error()
			continue
		}
		if !entry.Policy.Enabled {
			errs[id] = domain.ErrSourceDisabled.Error()
			continue
		}
		resolved = append(resolved, entry)
	}
	return resolved, errs
}
