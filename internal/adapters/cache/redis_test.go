package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatestKey(t *testing.T) {
	assert.Equal(t, "latest:BTC", latestKey("BTC"))
}

func TestEncodeDecodeLatestRoundTrip(t *testing.T) {
	value := encodeLatest(1700000000, 65432.5)
	price, ts, ok := decodeLatest(value)
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000), ts)
	assert.InDelta(t, 65432.5, price, 1e-9)
}

func TestDecodeLatestRejectsMalformedValue(t *testing.T) {
	_, _, ok := decodeLatest("not-a-valid-value")
	assert.False(t, ok)

	_, _, ok = decodeLatest("not-an-int|65432.5")
	assert.False(t, ok)
}
