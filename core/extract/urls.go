package extract

import (
	"net/url"
	"strings"
)

// resolveURL makes ref absolute against base and strips its fragment.
// Inline data URIs and unparseable references resolve to "".
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	parsed.Fragment = ""
	return parsed.String()
}
