package shared

import (
	"context"
	"time"
)

// FeedSubscriber is the callback invoked with the latest price snapshot and
// connection state whenever either changes. Subscribers own the provided map.
type FeedSubscriber func(prices map[string]PriceUpdate, connected bool)

// CandleSource defines the requirements for fetching historical candle data.
type CandleSource interface {
	// FetchCandles fetches historical candles for the provided symbol and
	// timeframe, ordered by ascending date.
	FetchCandles(ctx context.Context, symbol string, timeframe Timeframe, start time.Time, end time.Time) ([]Candlestick, error)
}

// CandleArchiver defines the requirements for durably persisting candles.
type CandleArchiver interface {
	// SaveCandles persists the provided candles.
	SaveCandles(ctx context.Context, candles []Candlestick) error
}
