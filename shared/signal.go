package shared

import (
	"time"
)

// StatusCode represents a request or signal status code.
type StatusCode int

const (
	Processing StatusCode = iota
	Processed
)

// CatchUpSignal represents a signal to backfill candle history for a symbol.
type CatchUpSignal struct {
	Symbol     string
	Timeframes []Timeframe
	Start      time.Time
	Status     chan StatusCode
}

// NewCatchUpSignal initializes a new catch up signal.
func NewCatchUpSignal(symbol string, timeframes []Timeframe, start time.Time) CatchUpSignal {
	return CatchUpSignal{
		Symbol:     symbol,
		Timeframes: timeframes,
		Start:      start,
		Status:     make(chan StatusCode, 1),
	}
}

// CaughtUpSignal represents a signal to conclude a catch up on candle history.
type CaughtUpSignal struct {
	Symbol string
	Status chan StatusCode
}

// NewCaughtUpSignal initializes a new caught up signal.
func NewCaughtUpSignal(symbol string) CaughtUpSignal {
	return CaughtUpSignal{
		Symbol: symbol,
		Status: make(chan StatusCode, 1),
	}
}
