package search

import (
	"sort"

	"github.com/seekerlab/deepsearch/internal/domain/search/outcome"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// defaultSourceWeight is the normalized score assigned when a source
// provides no usable score signal (no scores at all, or a degenerate range
// that cannot be rescaled).
const defaultSourceWeight = 0.5

// Merger combines per-source result lists into one deduplicated ranked list.
type Merger struct {
	norm *URLNormalizer
}

// NewMerger creates a merger using the given URL normalizer.
func NewMerger(norm *URLNormalizer) *Merger {
	return &Merger{norm: norm}
}

type candidate struct {
	url           string
	title         string
	snippet       string
	language      string
	primarySource string
	score         float64
	// Tie-break keys of the best contributor: position of its source in the
	// request's priority order, then its rank within that source's list.
	srcIdx    int
	intraRank int
	sources   map[string]struct{}
}

// Merge groups successful results by normalized URL, rescales scores to
// [0,1] per source, and returns the ranked list. Iteration follows the
// request's source priority order, never map order, so the output is
// deterministic for a fixed outcome set regardless of adapter completion
// order.
func (m *Merger) Merge(outcomes map[string]outcome.Outcome, sourceOrder []string) []result.Merged {
	var cands []*candidate
	index := map[string]*candidate{}

	for srcIdx, id := range sourceOrder {
		o, ok := outcomes[id]
		if !ok || !o.OK() {
			continue
		}
		results := o.Results()
		rescale := scoreRescaler(results)

		for intraRank, raw := range results {
			normURL, ok := m.norm.Normalize(raw.URL)
			if !ok {
				continue
			}
			score := rescale(raw.RawScore)

			cand, seen := index[normURL]
			if !seen {
				cand = &candidate{
					url:           normURL,
					title:         raw.Title,
					snippet:       raw.Snippet,
					language:      raw.Language,
					primarySource: id,
					score:         score,
					srcIdx:        srcIdx,
					intraRank:     intraRank,
					sources:       map[string]struct{}{id: {}},
				}
				index[normURL] = cand
				cands = append(cands, cand)
				continue
			}

			cand.sources[id] = struct{}{}
			if betterContributor(score, srcIdx, intraRank, cand) {
				cand.title = raw.Title
				cand.snippet = raw.Snippet
				cand.language = raw.Language
				cand.primarySource = id
				cand.score = score
				cand.srcIdx = srcIdx
				cand.intraRank = intraRank
			}
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.srcIdx != b.srcIdx {
			return a.srcIdx < b.srcIdx
		}
		if a.intraRank != b.intraRank {
			return a.intraRank < b.intraRank
		}
		return a.url < b.url
	})

	merged := make([]result.Merged, len(cands))
	for i, c := range cands {
		srcs := make([]string, 0, len(c.sources))
		for s := range c.sources {
			srcs = append(srcs, s)
		}
		sort.Strings(srcs)
		merged[i] = result.NewMerged(
			c.title, c.url, c.snippet, c.primarySource, srcs, c.language, c.score, i+1,
		)
	}
	return merged
}

// betterContributor reports whether the new (score, srcIdx, intraRank)
// contributor beats the candidate's current best. Equal scores fall back to
// source priority order, then to the original intra-source rank.
func betterContributor(score float64, srcIdx, intraRank int, cand *candidate) bool {
	if score != cand.score {
		return score > cand.score
	}
	if srcIdx != cand.srcIdx {
		return srcIdx < cand.srcIdx
	}
	return intraRank < cand.intraRank
}

// scoreRescaler returns the raw→[0,1] mapping for one source's result list:
// min-max rescaling over the observed range, or the default weight when the
// source gives no score spread to work with.
func scoreRescaler(results []result.Raw) func(float64) float64 {
	minScore, maxScore := 0.0, 0.0
	hasScore := false
	for _, r := range results {
		if r.RawScore == 0 {
			continue
		}
		if !hasScore {
			minScore, maxScore = r.RawScore, r.RawScore
			hasScore = true
			continue
		}
		if r.RawScore < minScore {
			minScore = r.RawScore
		}
		if r.RawScore > maxScore {
			maxScore = r.RawScore
		}
	}
	if !hasScore || maxScore == minScore {
		return func(float64) float64 { return defaultSourceWeight }
	}
	spread := maxScore - minScore
	return func(raw float64) float64 {
		if raw < minScore {
			raw = minScore
		}
		return (raw - minScore) / spread
	}
}
