package core

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// FormatPrice formats a lira amount the Turkish way: "275.000", "185.000,50".
func FormatPrice(v float64) string {
	if v == math.Trunc(v) {
		return humanize.FormatFloat("#.###,", v)
	}
	return humanize.FormatFloat("#.###,##", v)
}

// String renders the entry as "BMW-S 1000 RR: 275.000 ₺ → 289.000 ₺ (+5.09%)".
func (e PriceHistoryEntry) String() string {
	sign := ""
	if e.PriceChange > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s-%s: %s ₺ → %s ₺ (%s%.2f%%)",
		e.Brand, e.Name, FormatPrice(e.OldPrice), FormatPrice(e.NewPrice), sign, e.PercentageChange)
}
