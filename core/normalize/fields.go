// Package normalize turns raw scraped text into typed field values.
// Every function here is pure and total: unparseable input yields
// the zero value and false, never a panic.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// kwToHP is the fixed kilowatt to horsepower conversion factor.
const kwToHP = 1.341

var priceCharsRegex = regexp.MustCompile(`[^\d,.]`)

// ParsePrice parses a price written in the Turkish/European convention where
// '.' groups thousands and ',' marks decimals: "185.000,50" → 185000.5,
// "582.000 ₺" → 582000.
func ParsePrice(text string) (float64, bool) {
	cleaned := priceCharsRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	return parseLeadingFloat(cleaned)
}

// parseLeadingFloat parses the longest numeric prefix of s, the way a
// lenient float parser would ("12.5.3" → 12.5).
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	dot := false
	digits := 0
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			digits++
			end++
			continue
		}
		if c == '.' && !dot {
			dot = true
			end++
			continue
		}
		break
	}
	if digits == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var engineRegex = regexp.MustCompile(`(?i)\b(\d{2,4})\s*(?:cc)?\b`)

// ParseEngineCapacity extracts a displacement in cc from text such as
// "689cc", "689 cc" or "689".
func ParseEngineCapacity(text string) (int, bool) {
	m := engineRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// EngineRule is one brand's knowledge of how displacement hides in model names.
// It belongs to a single source profile and is never applied across brands.
type EngineRule struct {
	// Pattern's first submatch holds the digits taken from the model name.
	Pattern *regexp.Regexp

	// Values below ModelCodeBelow are model codes ("07") and are multiplied by
	// ModelCodeScale.
	ModelCodeBelow int
	ModelCodeScale int

	// Corrections maps a displayed number to the documented displacement.
	Corrections map[int]int
}

// Guess applies the rule to a model name.
func (r EngineRule) Guess(name string) (int, bool) {
	if r.Pattern == nil {
		return 0, false
	}
	m := r.Pattern.FindStringSubmatch(name)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	if r.ModelCodeScale > 0 && n < r.ModelCodeBelow {
		n *= r.ModelCodeScale
	}
	if c, ok := r.Corrections[n]; ok {
		n = c
	}
	return n, true
}

var (
	hpRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:hp|ps|bhp)`)
	kwRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*kw`)
)

// ParsePower parses horsepower from "73 HP", "73hp", "73 PS" or "116 BHP".
// Kilowatt values ("54 kW") are converted with 1 hp = kW × 1.341.
func ParsePower(text string) (float64, bool) {
	if m := hpRegex.FindStringSubmatch(text); m != nil {
		return parseDecimal(m[1])
	}
	if m := kwRegex.FindStringSubmatch(text); m != nil {
		kw, ok := parseDecimal(m[1])
		if !ok {
			return 0, false
		}
		return kw * kwToHP, true
	}
	return 0, false
}

var numberRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ParseNumber returns the first plain decimal number in text ("67,5 Nm" → 67.5).
// It is meant for torque and weight figures, not prices.
func ParseNumber(text string) (float64, bool) {
	m := numberRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	return parseDecimal(m)
}

func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseYear returns the first four-digit model year in text.
func ParseYear(text string) (int, bool) {
	m := yearRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}
