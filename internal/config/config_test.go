package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssetsFeedsValid(t *testing.T) {
	feeds, err := ParseAssetsFeeds("btc:feed-1, eth:feed-2 ,sol:feed-3")
	require.NoError(t, err)
	require.Len(t, feeds, 3)
	assert.Equal(t, "BTC", feeds[0].Symbol)
	assert.Equal(t, "feed-1", feeds[0].FeedID)
	assert.Equal(t, "ETH", feeds[1].Symbol)
	assert.Equal(t, "SOL", feeds[2].Symbol)
}

func TestParseAssetsFeedsEmpty(t *testing.T) {
	_, err := ParseAssetsFeeds("")
	assert.Error(t, err)
}

func TestParseAssetsFeedsMalformed(t *testing.T) {
	_, err := ParseAssetsFeeds("BTC-feed1")
	assert.Error(t, err)
}

func TestParseAssetsFeedsDuplicateSymbol(t *testing.T) {
	_, err := ParseAssetsFeeds("BTC:feed1,btc:feed2")
	assert.Error(t, err)
}

func TestParseAssetsFeedsEmptyFeedID(t *testing.T) {
	_, err := ParseAssetsFeeds("BTC:")
	assert.Error(t, err)
}
