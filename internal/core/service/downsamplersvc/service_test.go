package downsamplersvc

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
)

type fakeStore struct {
	port.Store
	promoted     map[int64]int
	promoteErr   map[int64]error
	expired      int64
	expireErr    error
	vacuumCalled bool
	statsBefore  map[string]int64
}

func (f *fakeStore) Promote(ctx context.Context, srcDuration, dstDuration, horizonSeconds, now int64) (int, error) {
	if err := f.promoteErr[srcDuration]; err != nil {
		return 0, err
	}
	return f.promoted[srcDuration], nil
}

func (f *fakeStore) Expire(ctx context.Context, tierDuration, horizonSeconds, now int64) (int64, error) {
	if f.expireErr != nil {
		return 0, f.expireErr
	}
	return f.expired, nil
}

func (f *fakeStore) Vacuum(ctx context.Context) error {
	f.vacuumCalled = true
	return nil
}

func (f *fakeStore) Stats(ctx context.Context) (map[string]int64, error) {
	return f.statsBefore, nil
}

type fakeCache struct {
	port.Cache
	invalidated []string
}

func (f *fakeCache) Invalidate(ctx context.Context, asset string) error {
	f.invalidated = append(f.invalidated, asset)
	return nil
}

// TestCycleSkipsFailedStepButContinues matches spec.md §4.3: a failed
// promotion step is logged and skipped, not fatal to the cycle.
func TestCycleSkipsFailedStepButContinues(t *testing.T) {
	store := &fakeStore{
		promoted:    map[int64]int{domain.TierRaw: 10, domain.TierOneMinute: 3},
		promoteErr:  map[int64]error{domain.TierFiveMinute: assertErr("promotion failed")},
		statsBefore: map[string]int64{"ticks_raw": 1000},
	}
	tracker := healthsvc.NewTracker("", 0)
	svc := New(0, store, nil, nil, tracker, slog.Default())

	assert.NotPanics(t, func() { svc.Cycle(context.Background()) })
	assert.True(t, tracker.Health().Healthy)
}

// TestCycleTriggersVacuumAboveThreshold and
// TestCycleSkipsVacuumBelowThreshold cover the conditional Vacuum
// rule in spec.md §4.3 step 5: run only when a cycle's emitted plus
// expired row count reaches vacuumThresholdFraction of the pre-cycle
// row count.
func TestCycleTriggersVacuumAboveThreshold(t *testing.T) {
	store := &fakeStore{
		promoted:    map[int64]int{},
		expired:     20, // 20/1000 == 2%, above the 1% threshold
		statsBefore: map[string]int64{"ticks_raw": 1000},
	}
	tracker := healthsvc.NewTracker("", 0)
	svc := New(0, store, nil, nil, tracker, slog.Default())

	svc.Cycle(context.Background())

	assert.True(t, store.vacuumCalled)
}

func TestCycleSkipsVacuumBelowThreshold(t *testing.T) {
	store := &fakeStore{
		promoted:    map[int64]int{},
		expired:     1, // 1/1000 == 0.1%, below the 1% threshold
		statsBefore: map[string]int64{"ticks_raw": 1000},
	}
	tracker := healthsvc.NewTracker("", 0)
	svc := New(0, store, nil, nil, tracker, slog.Default())

	svc.Cycle(context.Background())

	assert.False(t, store.vacuumCalled)
}

// TestCycleInvalidatesCacheOnlyWhenBucketsEmitted matches spec.md
// §4.3: the cache is dropped per asset after a promotion step that
// actually emitted buckets, but left alone when a step promoted
// nothing (nothing in the store changed to invalidate).
func TestCycleInvalidatesCacheOnlyWhenBucketsEmitted(t *testing.T) {
	store := &fakeStore{
		promoted:    map[int64]int{domain.TierRaw: 4},
		statsBefore: map[string]int64{"ticks_raw": 1000},
	}
	cache := &fakeCache{}
	tracker := healthsvc.NewTracker("", 0)
	svc := New(0, store, cache, []string{"BTC", "ETH"}, tracker, slog.Default())

	svc.Cycle(context.Background())

	assert.ElementsMatch(t, []string{"BTC", "ETH"}, cache.invalidated)
}

func TestCycleSkipsCacheInvalidateWhenNothingPromoted(t *testing.T) {
	store := &fakeStore{
		promoted:    map[int64]int{},
		statsBefore: map[string]int64{"ticks_raw": 1000},
	}
	cache := &fakeCache{}
	tracker := healthsvc.NewTracker("", 0)
	svc := New(0, store, cache, []string{"BTC"}, tracker, slog.Default())

	svc.Cycle(context.Background())

	assert.Empty(t, cache.invalidated)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
