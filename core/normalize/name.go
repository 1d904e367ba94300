package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// CleanModelName strips a leading brand word (case-insensitive), removes
// source noise such as regulatory suffixes, and collapses whitespace.
func CleanModelName(text, brand string, noise ...*regexp.Regexp) string {
	name := strings.TrimSpace(text)
	if brand != "" {
		prefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(brand) + `(?:\s+|$)`)
		name = prefix.ReplaceAllString(name, "")
	}
	for _, n := range noise {
		if n != nil {
			name = n.ReplaceAllString(name, "")
		}
	}
	return CollapseSpace(name)
}

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug joins brand, name and year into a URL slug. Empty fields and a
// zero year are skipped, so re-slugging a slug returns it unchanged.
func GenerateSlug(brand, name string, year int) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{brand, name} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if year > 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	combined := strings.ToLower(strings.Join(parts, "-"))
	combined = slugRegex.ReplaceAllString(combined, "-")
	return strings.Trim(combined, "-")
}
