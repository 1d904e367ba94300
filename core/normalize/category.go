package normalize

import (
	"strings"
	"sync"

	"github.com/gaurav-prasanna/motopipe/core"
)

// Rule maps a name to a category when any Contains substring or Prefix
// matches the upper-cased text.
type Rule struct {
	Contains []string
	Prefix   []string
	Category core.Category
}

func (r Rule) matches(upper string) bool {
	for _, c := range r.Contains {
		if strings.Contains(upper, c) {
			return true
		}
	}
	for _, p := range r.Prefix {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// RuleTable is an ordered rule list; the first matching rule wins.
type RuleTable []Rule

// Match returns the category of the first rule matching text.
func (t RuleTable) Match(text string) (core.Category, bool) {
	upper := strings.ToUpper(text)
	for _, r := range t {
		if r.matches(upper) {
			return r.Category, true
		}
	}
	return "", false
}

var categoryRules = struct {
	sync.RWMutex
	byBrand map[string]RuleTable
}{byBrand: make(map[string]RuleTable)}

func brandKey(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

// RegisterCategoryRules installs the name-based category rules for a brand,
// replacing any previous table.
func RegisterCategoryRules(brand string, table RuleTable) {
	categoryRules.Lock()
	defer categoryRules.Unlock()
	categoryRules.byBrand[brandKey(brand)] = table
}

// CategoryRules returns the table registered for brand.
func CategoryRules(brand string) (RuleTable, bool) {
	categoryRules.RLock()
	defer categoryRules.RUnlock()
	t, ok := categoryRules.byBrand[brandKey(brand)]
	return t, ok
}

// GuessCategory classifies a model name using the brand's registered rules.
// Brands without rules are never classified.
func GuessCategory(brand, name string) (core.Category, bool) {
	t, ok := CategoryRules(brand)
	if !ok {
		return "", false
	}
	return t.Match(name)
}

// MapCategoryLabel maps a source's own category label ("SUPERSPORT",
// "roadster") through a label table, accepting taxonomy values as-is.
func MapCategoryLabel(table RuleTable, label string) (core.Category, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	for _, c := range core.Categories {
		if strings.EqualFold(label, string(c)) {
			return c, true
		}
	}
	return table.Match(label)
}
