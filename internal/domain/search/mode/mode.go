package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Aggregation fans the query out to clearnet engine adapters.
	Aggregation Mode = "aggregation"
	Crawling    Mode = "crawling"
	// Hybrid combines aggregation and crawling sources.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Aggregation || m == Crawling || m == Hybrid
}
