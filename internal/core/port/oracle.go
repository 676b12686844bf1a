package port

import "context"

// OraclePrice is one upstream feed's quote, shaped per spec.md §6:
// price = mantissa * 10^exponent, collapsed by the adapter.
type OraclePrice struct {
	FeedID      string
	Price       float64
	PublishTime int64
}

// OracleClient fetches a batch of feed prices from the upstream oracle
// in a single call. Implementations apply their own request timeout;
// retry/backoff across attempts is the caller's (Aggregator's)
// responsibility per spec.md §4.1, since the retry budget is a cycle
// concern, not a transport concern.
type OracleClient interface {
	FetchPrices(ctx context.Context, feedIDs []string) ([]OraclePrice, error)
}
