package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceflow/internal/core/domain"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prices.json")

	snap := domain.Snapshot{
		Timestamp: time.Now().Unix(),
		Prices: map[string]domain.SnapshotEntry{
			"BTC": {Price: 65000, PublishTime: time.Now().Unix()},
		},
	}

	w := NewWriter(path)
	require.NoError(t, w.Write(snap))

	r := NewReader(path)
	got, age, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, snap.Timestamp, got.Timestamp)
	assert.Equal(t, 65000.0, got.Prices["BTC"].Price)
	assert.Less(t, age, 5*time.Second)
}

func TestReadMissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "does-not-exist.json"))
	_, _, err := r.Read()
	assert.ErrorIs(t, err, domain.ErrSnapshotMissing)
}

// TestWriteOverwritesAtomically matches scenario S4's premise that a
// reader only ever observes a complete, parsable file: writing twice
// in a row must leave the second snapshot's contents readable, never
// a partial or merged one.
func TestWriteOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.json")
	w := NewWriter(path)

	first := domain.Snapshot{Timestamp: 1, Prices: map[string]domain.SnapshotEntry{"BTC": {Price: 1}}}
	second := domain.Snapshot{Timestamp: 2, Prices: map[string]domain.SnapshotEntry{"BTC": {Price: 2}}}

	require.NoError(t, w.Write(first))
	require.NoError(t, w.Write(second))

	r := NewReader(path)
	got, _, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Timestamp)
	assert.Equal(t, 2.0, got.Prices["BTC"].Price)
}
