package search

import "testing"

func TestNormalize(t *testing.T) {
	n := NewURLNormalizer(nil)

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", "https://example.com/a", "https://example.com/a", true},
		{"upper scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path", true},
		{"trailing slash", "https://example.com/a/", "https://example.com/a", true},
		{"default https port", "https://example.com:443/a", "https://example.com/a", true},
		{"default http port", "http://example.com:80/a", "http://example.com/a", true},
		{"non-default port kept", "https://example.com:8443/a", "https://example.com:8443/a", true},
		{"fragment dropped", "https://example.com/a#section", "https://example.com/a", true},
		{"tracking params removed", "https://example.com/a?utm_source=x&utm_medium=y", "https://example.com/a", true},
		{"mixed params", "https://example.com/a?b=2&utm_source=x&a=1", "https://example.com/a?a=1&b=2", true},
		{"params sorted", "https://example.com/a?z=1&a=2", "https://example.com/a?a=2&z=1", true},
		{"relative", "/just/a/path", "", false},
		{"no host", "https:///a", "", false},
		{"ftp", "ftp://example.com/a", "", false},
		{"garbage", "::::", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.in)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_CustomDenylist(t *testing.T) {
	n := NewURLNormalizer([]string{"session"})

	got, ok := n.Normalize("https://example.com/a?session=abc&utm_source=x")
	if !ok {
		t.Fatal("expected ok")
	}
	// Only the configured denylist applies; utm_source survives.
	if got != "https://example.com/a?utm_source=x" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestNormalize_EquivalentFormsCollide(t *testing.T) {
	n := NewURLNormalizer(nil)

	a, _ := n.Normalize("https://Example.com/page/?utm_campaign=c")
	b, _ := n.Normalize("https://example.com:443/page")
	if a != b {
		t.Errorf("equivalent URLs normalize differently: %q vs %q", a, b)
	}
}
