package aggregatorsvc

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceflow/internal/adapters/snapshot"
	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
)

type fakeOracle struct {
	prices []port.OraclePrice
	err    error
}

func (f *fakeOracle) FetchPrices(ctx context.Context, feedIDs []string) ([]port.OraclePrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

type fakeStore struct {
	port.Store
	inserted []domain.Tick
	insertErr error
}

func (f *fakeStore) InsertTicks(ctx context.Context, ticks []domain.Tick) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, ticks...)
	return nil
}

func newTestService(t *testing.T, oracle *fakeOracle, store *fakeStore) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.json")
	writer := snapshot.NewWriter(path)
	feeds := []domain.AssetFeed{{Symbol: "BTC", FeedID: "feed-btc"}, {Symbol: "ETH", FeedID: "feed-eth"}}
	tracker := healthsvc.NewTracker("", 0)
	return New(feeds, 0, oracle, store, nil, writer, tracker, slog.Default()), path
}

func TestRunCycleDropsNonFiniteAndPersistsRest(t *testing.T) {
	oracle := &fakeOracle{prices: []port.OraclePrice{
		{FeedID: "feed-btc", Price: 65000, PublishTime: 1},
		{FeedID: "feed-eth", Price: math.NaN(), PublishTime: 1},
	}}
	store := &fakeStore{}
	svc, _ := newTestService(t, oracle, store)

	err := svc.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "BTC", store.inserted[0].Asset)
	assert.Equal(t, 65000.0, store.inserted[0].Price)
}

func TestRunCycleRejectsWhenNothingParses(t *testing.T) {
	oracle := &fakeOracle{prices: []port.OraclePrice{
		{FeedID: "feed-btc", Price: math.Inf(1), PublishTime: 1},
	}}
	store := &fakeStore{}
	svc, _ := newTestService(t, oracle, store)

	err := svc.RunCycle(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamParse)
	assert.Empty(t, store.inserted)
}

// TestRunCycleWritesSnapshotDespiteStoreFailure matches spec.md §4.1:
// a store failure after a successful fetch is logged, not fatal, and
// the snapshot is still published.
func TestRunCycleWritesSnapshotDespiteStoreFailure(t *testing.T) {
	oracle := &fakeOracle{prices: []port.OraclePrice{
		{FeedID: "feed-btc", Price: 65000, PublishTime: 1},
	}}
	store := &fakeStore{insertErr: assertError("insert failed")}
	svc, path := newTestService(t, oracle, store)

	err := svc.RunCycle(context.Background())
	require.NoError(t, err)

	_, _, readErr := snapshot.NewReader(path).Read()
	require.NoError(t, readErr)
}

type assertError string

func (e assertError) Error() string { return string(e) }
