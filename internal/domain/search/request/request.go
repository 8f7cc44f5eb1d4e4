package request

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	MaxQueryLength    = 1024
	DefaultMaxResults = 20
	MaxMaxResults     = 100
	DefaultPage       = 1
	DefaultPageSize   = 10
	MaxPageSize       = 50
)

// Request is a validated, normalized search request. Two requests that
// differ only in surrounding whitespace or the ordering of languages or
// duplicate entries normalize to the same value and the same fingerprint.
type Request struct {
	query      string
	searchMode mode.Mode
	languages  []string
	sources    []string
	maxResults int
	page       int
	pageSize   int
}

// New validates and normalizes search parameters.
// Defaults: mode=aggregation, maxResults=20. page and pageSize must be >= 1:
// boundaries that let callers omit them apply DefaultPage/DefaultPageSize for
// the absent fields before calling New, so an explicit zero is an error here,
// never a silent page 1.
// Languages are lower-cased, de-duplicated and sorted (order-insensitive set).
// Sources are de-duplicated but keep their order: it is the priority order
// used for merge tie-breaking.
func New(
	query string,
	m mode.Mode,
	languages, sources []string,
	maxResults, page, pageSize int,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = mode.Aggregation
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidRequest, m)
	}
	srcs := dedupeOrdered(sources)
	if len(srcs) == 0 {
		return Request{}, fmt.Errorf("%w: at least one source is required", domain.ErrInvalidRequest)
	}
	langs := normalizeLanguages(languages)
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMaxResults {
		maxResults = MaxMaxResults
	}
	if page < 1 {
		return Request{}, fmt.Errorf("%w: page must be >= 1, got %d", domain.ErrInvalidRequest, page)
	}
	if pageSize < 1 {
		return Request{}, fmt.Errorf("%w: page size must be >= 1, got %d", domain.ErrInvalidRequest, pageSize)
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return Request{
		query:      query,
		searchMode: m,
		languages:  langs,
		sources:    srcs,
		maxResults: maxResults,
		page:       page,
		pageSize:   pageSize,
	}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Languages returns the sorted, lower-cased language set.
func (r *Request) Languages() []string { return r.languages }

// Sources returns the de-duplicated source ids in priority order.
func (r *Request) Sources() []string { return r.sources }

// MaxResults returns the per-source result cap.
func (r *Request) MaxResults() int { return r.maxResults }

// Page returns the 1-indexed requested page.
func (r *Request) Page() int { return r.page }

// PageSize returns the requested page size.
func (r *Request) PageSize() int { return r.pageSize }

func normalizeLanguages(langs []string) []string {
	seen := make(map[string]struct{}, len(langs))
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func dedupeOrdered(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
