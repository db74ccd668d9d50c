// Package dedupe reduces URL lists to one entry per registered domain.
package dedupe

import (
	"net/url"
	"strings"

	"github.com/projectdiscovery/gologger"
)

// Domain extracts the deduplication key for a URL: hostname without port,
// without a leading "www.". Unparseable or host-less input keys on itself so
// it can never collide away another entry.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// ByDomain keeps one entry per domain, last write winning. Annotated lines
// like "available: 1.5 GB https://example.com/sub" key on the trailing URL
// but the whole line survives. Output order follows the first appearance of
// each surviving domain.
func ByDomain(list []string) []string {
	keyed := make(map[string]string, len(list))
	order := make([]string, 0, len(list))
	for _, entry := range list {
		target := entry
		if strings.Contains(entry, " ") && strings.Contains(entry, "http") {
			target = entry[strings.LastIndex(entry, " ")+1:]
		}
		key := Domain(target)
		if _, seen := keyed[key]; !seen {
			order = append(order, key)
		}
		keyed[key] = entry
	}
	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, keyed[key])
	}
	gologger.Info().Msgf("dedupe by domain: %d -> %d", len(list), len(out))
	return out
}
