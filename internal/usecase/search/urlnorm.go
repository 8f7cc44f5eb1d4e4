package search

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultTrackingParams are the query parameters stripped during URL
// normalization unless the config overrides the denylist.
var DefaultTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"gclid", "fbclid", "msclkid", "ref", "ref_src",
}

// URLNormalizer canonicalizes result URLs for deduplication.
type URLNormalizer struct {
	tracking map[string]struct{}
}

// NewURLNormalizer builds a normalizer with the given tracking-parameter
// denylist. A nil list selects DefaultTrackingParams.
func NewURLNormalizer(trackingParams []string) *URLNormalizer {
	if trackingParams == nil {
		trackingParams = DefaultTrackingParams
	}
	m := make(map[string]struct{}, len(trackingParams))
	for _, p := range trackingParams {
		m[strings.ToLower(p)] = struct{}{}
	}
	return &URLNormalizer{tracking: m}
}

// Normalize returns the canonical form of raw, or ok=false when raw is not
// an absolute http(s) URL. Canonicalization: lower-case scheme and host,
// default port stripped, trailing slash stripped, fragment dropped,
// tracking parameters removed and the rest sorted.
func (n *URLNormalizer) Normalize(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return "", false
	}
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimSuffix(u.Path, "/")

	query := ""
	if u.RawQuery != "" {
		kept := url.Values{}
		for key, vals := range u.Query() {
			if _, drop := n.tracking[strings.ToLower(key)]; drop {
				continue
			}
			for _, v := range vals {
				kept.Add(key, v)
			}
		}
		if len(kept) > 0 {
			keys := make([]string, 0, len(kept))
			for k := range kept {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var parts []string
			for _, k := range keys {
				for _, v := range kept[k] {
					parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
				}
			}
			query = "?" + strings.Join(parts, "&")
		}
	}

	return scheme + "://" + host + path + query, true
}
