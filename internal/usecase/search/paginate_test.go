package search

import (
	"errors"
	"fmt"
	"testing"

	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

func mergedSet(n int) []result.Merged {
	out := make([]result.Merged, 0, n)
	for i := range n {
		u := fmt.Sprintf("https://example.com/%d", i)
		out = append(out, result.NewMerged(
			fmt.Sprintf("title %d", i), u, "", "a", []string{"a"}, "", 1-float64(i)/float64(n), i+1))
	}
	return out
}

func TestPaginate_CoversSetWithoutOverlap(t *testing.T) {
	merged := mergedSet(25)

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		items, totalPages, err := paginate(merged, page, 10)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if totalPages != 3 {
			t.Fatalf("page %d: totalPages = %d, want 3", page, totalPages)
		}
		wantLen := 10
		if page == 3 {
			wantLen = 5
		}
		if len(items) != wantLen {
			t.Fatalf("page %d: len = %d, want %d", page, len(items), wantLen)
		}
		for i := range items {
			u := items[i].URL()
			if seen[u] {
				t.Fatalf("page %d: %q appears on two pages", page, u)
			}
			seen[u] = true
		}
	}
	if len(seen) != 25 {
		t.Errorf("pages cover %d items, want 25", len(seen))
	}
}

func TestPaginate_PreservesRankOrder(t *testing.T) {
	merged := mergedSet(25)

	items, _, err := paginate(merged, 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := range items {
		if items[i].Rank() != 11+i {
			t.Errorf("position %d: Rank() = %d, want %d", i, items[i].Rank(), 11+i)
		}
	}
}

func TestPaginate_PageBeyondEnd(t *testing.T) {
	_, _, err := paginate(mergedSet(25), 4, 10)
	if !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Fatalf("err = %v, want ErrPageOutOfRange", err)
	}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("ErrPageOutOfRange should also match ErrInvalidRequest")
	}
}

func TestPaginate_PageBelowOne(t *testing.T) {
	if _, _, err := paginate(mergedSet(5), 0, 10); !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Fatalf("page 0: err = %v, want ErrPageOutOfRange", err)
	}
	if _, _, err := paginate(mergedSet(5), -3, 10); !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Fatalf("page -3: err = %v, want ErrPageOutOfRange", err)
	}
}

func TestPaginate_EmptySet(t *testing.T) {
	items, totalPages, err := paginate(nil, 1, 10)
	if err != nil {
		t.Fatalf("page 1 of empty set: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", items)
	}
	if totalPages != 0 {
		t.Errorf("totalPages = %d, want 0", totalPages)
	}

	if _, _, err := paginate(nil, 2, 10); !errors.Is(err, domain.ErrPageOutOfRange) {
		t.Fatalf("page 2 of empty set: err = %v, want ErrPageOutOfRange", err)
	}
}

func TestPaginate_ExactMultiple(t *testing.T) {
	items, totalPages, err := paginate(mergedSet(20), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if totalPages != 2 || len(items) != 10 {
		t.Errorf("totalPages = %d len = %d, want 2 and 10", totalPages, len(items))
	}
}
