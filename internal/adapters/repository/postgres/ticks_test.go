package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"priceflow/internal/core/domain"
)

// TestTierForAge covers the age-to-tier boundaries from spec.md §4.2:
// 24h<age<=7d -> T1, 7d<age<=30d -> T2, 30d<age<=365d -> T3, age>365d
// -> none. PriceAtOrBefore handles age<=24h itself via the raw tier's
// bounded fallback, so it is not exercised by tierForAge.
func TestTierForAge(t *testing.T) {
	const day = 24 * 3600

	cases := []struct {
		name    string
		age     int64
		wantTier int64
		wantOK  bool
	}{
		{"just past raw retention", day + 1, domain.TierOneMinute, true},
		{"end of 7d window", 7 * day, domain.TierOneMinute, true},
		{"just past 7d", 7*day + 1, domain.TierFiveMinute, true},
		{"end of 30d window", 30 * day, domain.TierFiveMinute, true},
		{"just past 30d", 30*day + 1, domain.TierFifteenMinute, true},
		{"end of 365d window", 365 * day, domain.TierFifteenMinute, true},
		{"past 365d", 365*day + 1, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, ok := tierForAge(tc.age)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantTier, tier)
			}
		})
	}
}

// TestBucketPriceQuerySelection confirms useAvg picks the avg-column
// query and its complement picks the close-column query, matching the
// "close for <=24h windows, avg for 7d/long-window" rule in spec.md
// §4.2 — without a live database, this only checks the query text
// selected, not its execution.
func TestBucketPriceQuerySelection(t *testing.T) {
	assert.Contains(t, bucketPriceByCloseQuery, "close")
	assert.NotContains(t, bucketPriceByCloseQuery, "avg")
	assert.Contains(t, bucketPriceByAvgQuery, "avg")
	assert.NotContains(t, bucketPriceByAvgQuery, "close")
}
