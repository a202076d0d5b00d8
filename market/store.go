package market

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wfdlt/pulse/shared"
)

const (
	// defaultSeriesSize is the default maximum number of candles retained
	// per series.
	defaultSeriesSize = 720
)

// StoreConfig represents the configuration for the candle store.
type StoreConfig struct {
	// SeriesSize is the maximum number of candles retained per series.
	SeriesSize int
}

// Store represents the collection of candle series tracked by the process,
// keyed by symbol and timeframe.
type Store struct {
	cfg    *StoreConfig
	mtx    sync.RWMutex
	series map[string]*CandleSeries
}

// NewStore initializes a new candle store.
func NewStore(cfg *StoreConfig) (*Store, error) {
	if cfg.SeriesSize == 0 {
		cfg.SeriesSize = defaultSeriesSize
	}
	if cfg.SeriesSize < 0 {
		return nil, fmt.Errorf("series size must be positive, got %d", cfg.SeriesSize)
	}

	return &Store{
		cfg:    cfg,
		series: make(map[string]*CandleSeries),
	}, nil
}

// seriesKey returns the store key for the provided symbol and timeframe.
func seriesKey(symbol string, timeframe shared.Timeframe) string {
	return symbol + ":" + timeframe.String()
}

// Series fetches the candle series for the provided symbol and timeframe,
// creating it on first use.
func (s *Store) Series(symbol string, timeframe shared.Timeframe) (*CandleSeries, error) {
	key := seriesKey(symbol, timeframe)

	s.mtx.RLock()
	series, ok := s.series[key]
	s.mtx.RUnlock()
	if ok {
		return series, nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	// A concurrent caller may have created the series already.
	series, ok = s.series[key]
	if ok {
		return series, nil
	}

	series, err := NewCandleSeries(symbol, timeframe, s.cfg.SeriesSize)
	if err != nil {
		return nil, fmt.Errorf("creating candle series: %w", err)
	}

	s.series[key] = series
	return series, nil
}

// Update merges the provided candle into its series.
func (s *Store) Update(candle shared.Candlestick) error {
	series, err := s.Series(candle.Symbol, candle.Timeframe)
	if err != nil {
		return err
	}

	return series.Update(candle)
}

// ApplyPrice folds the provided price update into the forming candle of
// every listed timeframe for its symbol.
func (s *Store) ApplyPrice(update shared.PriceUpdate, timeframes []shared.Timeframe) error {
	var errs error

	for idx := range timeframes {
		series, err := s.Series(update.Symbol, timeframes[idx])
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		err = series.ApplyPrice(update)
		if err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

// LastN fetches a copy of the last n candles for the provided symbol and
// timeframe. A series that has not been created yet yields no candles.
func (s *Store) LastN(symbol string, timeframe shared.Timeframe, n int) []shared.Candlestick {
	s.mtx.RLock()
	series, ok := s.series[seriesKey(symbol, timeframe)]
	s.mtx.RUnlock()
	if !ok {
		return nil
	}

	return series.LastN(n)
}
