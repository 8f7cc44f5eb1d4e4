// Package history persists one append-only event per completed search in a
// capped Redis list, newest first.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seekerlab/deepsearch/internal/domain"
)

// store is the consumer interface for history operations (ISP).
type store interface {
	LPushTrim(ctx context.Context, key string, value []byte, maxLen int) error
	LRange(ctx context.Context, key string, start, stop int) ([][]byte, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Defaults for the history log.
const (
	DefaultKey    = "deepsearch:history"
	DefaultMaxLen = 1000
)

// Store implements the search event log on top of a capped list.
type Store struct {
	store  store
	key    string
	maxLen int
}

// Option configures the store.
type Option func(*Store)

// WithKey overrides the list key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithMaxLen overrides the retained event count.
func WithMaxLen(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// New creates a history store.
func New(st store, opts ...Option) *Store {
	s := &Store{store: st, key: DefaultKey, maxLen: DefaultMaxLen}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Record appends one event, evicting the oldest past the cap.
func (s *Store) Record(ctx context.Context, ev domain.SearchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal search event %s: %w", ev.SearchID, err)
	}
	if err := s.store.LPushTrim(ctx, s.key, data, s.maxLen); err != nil {
		return fmt.Errorf("record search event %s: %w", ev.SearchID, err)
	}
	return nil
}

// Recent returns up to limit events, newest first. Entries that fail to
// decode are skipped: one corrupt row must not hide the rest of the log.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.SearchEvent, error) {
	if limit <= 0 || limit > s.maxLen {
		limit = s.maxLen
	}
	rows, err := s.store.LRange(ctx, s.key, 0, limit-1)
	if err != nil {
		return nil, fmt.Errorf("read search history: %w", err)
	}

	events := make([]domain.SearchEvent, 0, len(rows))
	for _, row := range rows {
		var ev domain.SearchEvent
		if err := json.Unmarshal(row, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Count returns the number of retained events.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.store.LLen(ctx, s.key)
	if err != nil {
		return 0, fmt.Errorf("count search history: %w", err)
	}
	return int(n), nil
}
