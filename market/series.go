package market

import (
	"fmt"
	"sync"

	"github.com/wfdlt/pulse/shared"
	"go.uber.org/atomic"
)

// CandleSeries represents a bounded, ordered candle buffer for a symbol and
// timeframe pair. Candle dates are unique and strictly increasing, the oldest
// entries are overwritten once the buffer reaches capacity.
type CandleSeries struct {
	symbol    string
	timeframe shared.Timeframe
	updates   atomic.Uint64

	mtx   sync.RWMutex
	data  []shared.Candlestick
	start int
	count int
	size  int
}

// NewCandleSeries initializes a new candle series.
func NewCandleSeries(symbol string, timeframe shared.Timeframe, size int) (*CandleSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("series symbol cannot be an empty string")
	}
	if size <= 0 {
		return nil, fmt.Errorf("series size must be positive, got %d", size)
	}

	return &CandleSeries{
		symbol:    symbol,
		timeframe: timeframe,
		data:      make([]shared.Candlestick, size),
		size:      size,
	}, nil
}

// push appends the provided candle, overwriting the oldest entry when the
// series is at capacity. Callers must hold the write lock.
func (s *CandleSeries) push(candle shared.Candlestick) {
	end := (s.start + s.count) % s.size
	s.data[end] = candle

	if s.count == s.size {
		s.start = (s.start + 1) % s.size
	} else {
		s.count++
	}
}

// Update merges the provided candle into the series. Strictly newer candles
// append, a candle matching the date of an existing entry replaces it in
// place and an older candle matching no existing entry is rejected to
// preserve ordering.
func (s *CandleSeries) Update(candle shared.Candlestick) error {
	if candle.Symbol != s.symbol {
		return fmt.Errorf("expected candles for %s, got %s", s.symbol, candle.Symbol)
	}
	if candle.Timeframe != s.timeframe {
		return fmt.Errorf("expected candles with timeframe %s, got %s",
			s.timeframe.String(), candle.Timeframe.String())
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.count == 0 {
		s.push(candle)
		s.updates.Inc()
		return nil
	}

	lastIdx := (s.start + s.count - 1) % s.size
	switch {
	case candle.Date.After(s.data[lastIdx].Date):
		s.push(candle)
	case candle.Date.Equal(s.data[lastIdx].Date):
		// The forming candle advancing.
		s.data[lastIdx] = candle
	default:
		if !s.merge(candle) {
			return fmt.Errorf("out of order candle for %s %s: %s matches no existing entry",
				s.symbol, s.timeframe.String(), candle.Date.Format(shared.DateLayout))
		}
	}

	s.updates.Inc()
	return nil
}

// merge replaces the existing entry sharing the provided candle's date,
// reporting whether one was found. Callers must hold the write lock.
func (s *CandleSeries) merge(candle shared.Candlestick) bool {
	for idx := s.count - 2; idx >= 0; idx-- {
		pos := (s.start + idx) % s.size
		switch {
		case s.data[pos].Date.Equal(candle.Date):
			s.data[pos] = candle
			return true
		case s.data[pos].Date.Before(candle.Date):
			return false
		}
	}

	return false
}

// ApplyPrice folds the provided price update into the forming candle of the
// series, seeding a new candle when the update crosses into a new bucket.
// The feed reports cumulative session volume, so the forming candle keeps
// the furthest total rather than summing.
func (s *CandleSeries) ApplyPrice(update shared.PriceUpdate) error {
	if update.Symbol != s.symbol {
		return fmt.Errorf("expected price updates for %s, got %s", s.symbol, update.Symbol)
	}

	bucket, err := s.timeframe.Truncate(update.Timestamp)
	if err != nil {
		return fmt.Errorf("bucketing price update: %w", err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.count > 0 {
		lastIdx := (s.start + s.count - 1) % s.size
		last := &s.data[lastIdx]

		switch {
		case bucket.Equal(last.Date):
			last.Close = update.Price
			if update.Price > last.High {
				last.High = update.Price
			}
			if update.Price < last.Low {
				last.Low = update.Price
			}
			if update.Volume > last.Volume {
				last.Volume = update.Volume
			}

			s.updates.Inc()
			return nil
		case bucket.Before(last.Date):
			return fmt.Errorf("stale price update for %s %s: %s precedes the forming candle",
				s.symbol, s.timeframe.String(), update.Timestamp.Format(shared.DateLayout))
		}
	}

	s.push(shared.Candlestick{
		Open:      update.Price,
		High:      update.Price,
		Low:       update.Price,
		Close:     update.Price,
		Volume:    update.Volume,
		Date:      bucket,
		Symbol:    s.symbol,
		Timeframe: s.timeframe,
	})

	s.updates.Inc()
	return nil
}

// Last returns the most recent candle of the series.
func (s *CandleSeries) Last() (shared.Candlestick, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.count == 0 {
		return shared.Candlestick{}, false
	}

	return s.data[(s.start+s.count-1)%s.size], true
}

// LastN fetches a copy of the last n candles from the series.
func (s *CandleSeries) LastN(n int) []shared.Candlestick {
	if n <= 0 {
		return nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	// Clamp the number of elements expected if it is greater than the count.
	if n > s.count {
		n = s.count
	}

	set := make([]shared.Candlestick, n)
	start := (s.start + s.count - n + s.size) % s.size

	for i := range n {
		idx := (start + i) % s.size
		set[i] = s.data[idx]
	}

	return set
}

// All fetches a copy of every candle in the series, oldest first.
func (s *CandleSeries) All() []shared.Candlestick {
	s.mtx.RLock()
	n := s.count
	s.mtx.RUnlock()

	return s.LastN(n)
}

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.count
}

// Updates returns the number of mutations applied to the series.
func (s *CandleSeries) Updates() uint64 {
	return s.updates.Load()
}
