package chi

import (
	"net/url"

	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
	searchuc "github.com/seekerlab/deepsearch/internal/usecase/search"
)

// searchRequestDTO is the POST /api/search body. Page and PageSize are
// pointers so an absent field (defaulted) is distinguishable from an
// explicit zero (rejected).
type searchRequestDTO struct {
	Query      string   `json:"query"`
	Mode       string   `json:"mode"`
	Languages  []string `json:"languages"`
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
	Page       *int     `json:"page"`
	PageSize   *int     `json:"page_size"`
}

// searchResponseDTO is the POST /api/search response envelope.
type searchResponseDTO struct {
	SearchID         string            `json:"search_id"`
	Query            string            `json:"query"`
	Mode             string            `json:"mode"`
	Status           string            `json:"status"`
	RequestedSources []string          `json:"requested_sources"`
	Errors           map[string]string `json:"errors,omitempty"`
	Results          []resultDTO       `json:"results"`
	ResultsCount     int               `json:"results_count"`
	TotalResults     int               `json:"total_results"`
	TotalPages       int               `json:"total_pages"`
	Page             int               `json:"page"`
	PageSize         int               `json:"page_size"`
	DurationMs       int64             `json:"duration_ms"`
	FromCache        bool              `json:"from_cache"`
}

// resultDTO is one entry of the ranked result list.
type resultDTO struct {
	Title    string             `json:"title"`
	URL      string             `json:"url"`
	Snippet  string             `json:"snippet,omitempty"`
	Score    float64            `json:"score"`
	Rank     int                `json:"rank"`
	Source   string             `json:"source"`
	Sources  []string           `json:"sources"`
	Language string             `json:"language,omitempty"`
	Metadata *resultMetadataDTO `json:"metadata,omitempty"`
}

// resultMetadataDTO carries display hints derived from the result URL.
type resultMetadataDTO struct {
	Domain     string `json:"domain,omitempty"`
	FaviconURL string `json:"favicon_url,omitempty"`
}

type analyzeRequestDTO struct {
	Query string `json:"query"`
}

type historyResponseDTO struct {
	History []domain.SearchEvent `json:"history"`
	Count   int                  `json:"count"`
}

type errorResponseDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error response codes.
const (
	codeBadRequest      = "bad_request"
	codeInvalidRequest  = "validation_failed"
	codePageOutOfRange  = "page_out_of_range"
	codeNoUsableSources = "no_usable_sources"
	codeNotFound        = "not_found"
	codeInternalError   = "internal_error"
)

func searchResponseToDTO(query, mode string, resp *searchuc.Response) searchResponseDTO {
	results := make([]resultDTO, len(resp.Results))
	for i := range resp.Results {
		results[i] = resultToDTO(&resp.Results[i])
	}
	return searchResponseDTO{
		SearchID:         resp.SearchID,
		Query:            query,
		Mode:             mode,
		Status:           string(resp.Status),
		RequestedSources: resp.RequestedSources,
		Errors:           resp.SourceErrors,
		Results:          results,
		ResultsCount:     len(results),
		TotalResults:     resp.TotalResults,
		TotalPages:       resp.TotalPages,
		Page:             resp.Page,
		PageSize:         resp.PageSize,
		DurationMs:       resp.Duration.Milliseconds(),
		FromCache:        resp.FromCache,
	}
}

func resultToDTO(m *result.Merged) resultDTO {
	return resultDTO{
		Title:    m.Title(),
		URL:      m.URL(),
		Snippet:  m.Snippet(),
		Score:    m.Score(),
		Rank:     m.Rank(),
		Source:   m.PrimarySource(),
		Sources:  m.Sources(),
		Language: m.Language(),
		Metadata: metadataFor(m.URL()),
	}
}

func metadataFor(raw string) *resultMetadataDTO {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := u.Hostname()
	return &resultMetadataDTO{
		Domain:     host,
		FaviconURL: u.Scheme + "://" + host + "/favicon.ico",
	}
}
