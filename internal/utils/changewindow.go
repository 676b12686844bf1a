// Package utils holds small helpers shared across the price pipeline.
package utils

import "time"

// ChangeWindow is one of the lookback windows the Presence Worker
// computes changes over, per spec.md §4.4. The /price command reports
// 1h, 12h and 24h; the 7d window is computed but not reported.
type ChangeWindow struct {
	Label    string
	Duration time.Duration
}

// ChangeWindows lists the windows in report order: 1h, 12h, 24h, 7d.
var ChangeWindows = []ChangeWindow{
	{Label: "1h", Duration: 1 * time.Hour},
	{Label: "12h", Duration: 12 * time.Hour},
	{Label: "24h", Duration: 24 * time.Hour},
	{Label: "7d", Duration: 7 * 24 * time.Hour},
}

// PercentChange returns the percentage change from `from` to `to`,
// or ok=false if `from` is zero (no baseline to compare against).
func PercentChange(from, to float64) (pct float64, ok bool) {
	if from == 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}
