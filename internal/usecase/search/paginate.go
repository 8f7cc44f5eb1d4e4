package search

import (
	"fmt"

	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// paginate slices the merged list into the requested 1-indexed page.
// Out-of-range pages are an error, never silently clamped; the one
// exception is page 1 of an empty set, which is a valid empty page with
// totalPages 0. Pagination is pure: repeated calls reuse the cached merged
// set without touching the fan-out.
func paginate(merged []result.Merged, page, pageSize int) ([]result.Merged, int, error) {
	if page < 1 {
		return nil, 0, fmt.Errorf("%w: page %d", domain.ErrPageOutOfRange, page)
	}
	if len(merged) == 0 {
		if page == 1 {
			return []result.Merged{}, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: page %d of 0", domain.ErrPageOutOfRange, page)
	}

	totalPages := (len(merged) + pageSize - 1) / pageSize
	if page > totalPages {
		return nil, 0, fmt.Errorf("%w: page %d of %d", domain.ErrPageOutOfRange, page, totalPages)
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(merged))
	return merged[start:end], totalPages, nil
}
