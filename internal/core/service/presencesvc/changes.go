package presencesvc

import "fmt"

// trendThreshold is the ±0.01% band below which a change is reported
// flat, per spec.md §4.4's /price command glyph rule.
const trendThreshold = 0.01

// TrendGlyph classifies a percentage change into one of the three
// glyphs the /price command reports.
func TrendGlyph(pct float64) string {
	switch {
	case pct > trendThreshold:
		return "📈"
	case pct < -trendThreshold:
		return "📉"
	default:
		return "➖"
	}
}

// FormatPercent renders a signed percentage to two decimal places,
// e.g. "+10.00%" or "-3.45%", matching scenario S2 in spec.md §8.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}
