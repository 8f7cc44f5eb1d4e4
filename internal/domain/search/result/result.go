package result

// Raw is a single candidate returned by one source adapter. Scores are
// adapter-local and not comparable across sources; zero means the source
// provides no score at all. Raw values are transient, scoped to one fan-out.
type Raw struct {
	Title    string
	URL      string
	Snippet  string
	SourceID string
	Language string
	RawScore float64
}

// Merged is one deduplicated entry of the final ranked list. Immutable once
// built by the merger.
type Merged struct {
	title         string
	url           string
	snippet       string
	primarySource string
	sources       []string
	language      string
	score         float64
	rank          int
}

// NewMerged builds a merged result. sources must already be sorted.
func NewMerged(
	title, url, snippet, primarySource string,
	sources []string,
	language string,
	score float64,
	rank int,
) Merged {
	return Merged{
		title:         title,
		url:           url,
		snippet:       snippet,
		primarySource: primarySource,
		sources:       sources,
		language:      language,
		score:         score,
		rank:          rank,
	}
}

// Title returns the title taken from the highest-scoring contributor.
func (m *Merged) Title() string { return m.title }

// URL returns the normalized deduplication URL.
func (m *Merged) URL() string { return m.url }

// Snippet returns the snippet taken from the highest-scoring contributor.
func (m *Merged) Snippet() string { return m.snippet }

// PrimarySource returns the id of the highest-scoring contributor.
func (m *Merged) PrimarySource() string { return m.primarySource }

// Sources returns all contributing source ids, sorted.
func (m *Merged) Sources() []string { return m.sources }

// Language returns the language tag of the primary contributor, if any.
func (m *Merged) Language() string { return m.language }

// Score returns the cross-source normalized score in [0,1].
func (m *Merged) Score() float64 { return m.score }

// Rank returns the 1-indexed final position.
func (m *Merged) Rank() int { return m.rank }
