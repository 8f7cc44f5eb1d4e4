package request

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Fingerprint derives the deterministic cache key for this request.
// It covers (query, mode, languages, sources, maxResults) and deliberately
// excludes page and pageSize: pagination is served from one cached merged set.
// Sources are sorted here even though the request keeps their priority order,
// so two requests differing only in source ordering share an entry.
func (r *Request) Fingerprint() string {
	srcs := make([]string, len(r.sources))
	copy(srcs, r.sources)
	sort.Strings(srcs)

	// Unit separator keeps fields unambiguous regardless of their content.
	var b strings.Builder
	b.WriteString(r.query)
	b.WriteByte(0x1f)
	b.WriteString(string(r.searchMode))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(r.languages, ","))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(srcs, ","))
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(r.maxResults))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
