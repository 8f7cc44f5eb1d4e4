package request

import (
	"testing"

	"github.com/seekerlab/deepsearch/internal/domain/search/mode"
)

func mustNew(t *testing.T, query string, langs, srcs []string, maxResults int) Request {
	t.Helper()
	r, err := New(query, mode.Aggregation, langs, srcs, maxResults, 1, 10)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func TestFingerprint_SetOrderInsensitive(t *testing.T) {
	a := mustNew(t, "cat", []string{"en", "it"}, []string{"a", "b"}, 20)
	b := mustNew(t, "cat", []string{"it", "en"}, []string{"b", "a"}, 20)
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ for set-equal requests:\n%s\n%s", a.Fingerprint(), b.Fingerprint())
	}
}

func TestFingerprint_WhitespaceInsensitive(t *testing.T) {
	a := mustNew(t, "cat ", []string{"en"}, []string{"a"}, 20)
	b := mustNew(t, "cat", []string{"en"}, []string{"a"}, 20)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("trailing whitespace changed the fingerprint")
	}
}

func TestFingerprint_IgnoresPagination(t *testing.T) {
	a, err := New("cat", mode.Aggregation, []string{"en"}, []string{"a"}, 20, 1, 10)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	b, err := New("cat", mode.Aggregation, []string{"en"}, []string{"a"}, 20, 3, 25)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("page/pageSize changed the fingerprint")
	}
}

func TestFingerprint_SensitiveToMaterialFields(t *testing.T) {
	base := mustNew(t, "cat", []string{"en"}, []string{"a"}, 20)

	variants := []Request{
		mustNew(t, "dog", []string{"en"}, []string{"a"}, 20),
		mustNew(t, "cat", []string{"it"}, []string{"a"}, 20),
		mustNew(t, "cat", []string{"en"}, []string{"b"}, 20),
		mustNew(t, "cat", []string{"en"}, []string{"a", "b"}, 20),
		mustNew(t, "cat", []string{"en"}, []string{"a"}, 30),
	}
	for i, v := range variants {
		if v.Fingerprint() == base.Fingerprint() {
			t.Errorf("variant %d collides with base fingerprint", i)
		}
	}

	hybrid, err := New("cat", mode.Hybrid, []string{"en"}, []string{"a"}, 20, 1, 10)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	if hybrid.Fingerprint() == base.Fingerprint() {
		t.Error("mode change did not change the fingerprint")
	}
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	// Same concatenated text split differently across fields must not collide.
	a := mustNew(t, "cat en", []string{"it"}, []string{"a"}, 20)
	b := mustNew(t, "cat", []string{"en", "it"}, []string{"a"}, 20)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("field boundary collision between query and languages")
	}
}
