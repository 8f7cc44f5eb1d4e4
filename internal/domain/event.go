package domain

import "time"

// SearchEvent is the append-only record emitted once per completed search.
// Sink failures never affect the search response.
type SearchEvent struct {
	SearchID     string    `json:"search_id"`
	Query        string    `json:"query"`
	Mode         string    `json:"mode"`
	Languages    []string  `json:"languages"`
	Sources      []string  `json:"sources"`
	Status       string    `json:"status"`
	ResultsCount int       `json:"results_count"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}
