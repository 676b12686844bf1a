package presencesvc

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceflow/internal/adapters/snapshot"
	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
)

type fakeStore struct {
	port.Store
	latest map[string]domain.Tick
}

func (f *fakeStore) LatestTick(ctx context.Context, asset string) (domain.Tick, bool, error) {
	t, ok := f.latest[asset]
	return t, ok, nil
}

func (f *fakeStore) PriceAtOrBefore(ctx context.Context, asset string, ts, now int64, useAvg bool) (domain.PricePoint, bool, error) {
	return domain.PricePoint{}, false, nil
}

func newTestPresenceService(t *testing.T, store *fakeStore, snap domain.Snapshot) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.json")
	w := snapshot.NewWriter(path)
	require.NoError(t, w.Write(snap))
	reader := snapshot.NewReader(path)
	return New("BTC", time.Second, store, nil, reader, nil, nil, slog.Default())
}

func TestHandlePriceCommandDefaultsToOwnAsset(t *testing.T) {
	snap := domain.Snapshot{
		Timestamp: time.Now().Unix(),
		Prices: map[string]domain.SnapshotEntry{
			"BTC": {Price: 65000},
			"ETH": {Price: 3400},
			"SOL": {Price: 160},
		},
	}
	svc := newTestPresenceService(t, &fakeStore{}, snap)

	reply, isError := svc.handlePriceCommand(context.Background(), port.CommandInvocation{Args: map[string]string{}})
	assert.False(t, isError)
	assert.Contains(t, reply, "BTC: 65,000")
	assert.Contains(t, reply, "ETH")
	assert.Contains(t, reply, "SOL")
}

func TestHandlePriceCommandExplicitAsset(t *testing.T) {
	snap := domain.Snapshot{
		Timestamp: time.Now().Unix(),
		Prices: map[string]domain.SnapshotEntry{
			"BTC": {Price: 65000},
			"ETH": {Price: 3400},
			"SOL": {Price: 160},
		},
	}
	svc := newTestPresenceService(t, &fakeStore{}, snap)

	reply, isError := svc.handlePriceCommand(context.Background(), port.CommandInvocation{Args: map[string]string{"asset": "eth"}})
	assert.False(t, isError)
	assert.True(t, strings.HasPrefix(reply, "ETH: 3,400"))
}

func TestHandlePriceCommandUnknownAsset(t *testing.T) {
	snap := domain.Snapshot{Timestamp: time.Now().Unix(), Prices: map[string]domain.SnapshotEntry{}}
	svc := newTestPresenceService(t, &fakeStore{}, snap)

	reply, isError := svc.handlePriceCommand(context.Background(), port.CommandInvocation{Args: map[string]string{"asset": "doge"}})
	assert.True(t, isError)
	assert.Contains(t, reply, "no price data available for DOGE")
}
