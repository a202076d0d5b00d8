package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing candle dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	FourHour
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	case ThirtyMinute:
		return "30m"
	case OneHour:
		return "1H"
	case FourHour:
		return "4H"
	case OneDay:
		return "1D"
	default:
		return "unknown"
	}
}

// ParseTimeframe parses a timeframe from the provided string.
func ParseTimeframe(timeframe string) (Timeframe, error) {
	switch timeframe {
	case "1m":
		return OneMinute, nil
	case "5m":
		return FiveMinute, nil
	case "15m":
		return FifteenMinute, nil
	case "30m":
		return ThirtyMinute, nil
	case "1H":
		return OneHour, nil
	case "4H":
		return FourHour, nil
	case "1D":
		return OneDay, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", timeframe)
	}
}

// Duration returns the bucket width of the provided timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneMinute:
		return time.Minute, nil
	case FiveMinute:
		return time.Minute * 5, nil
	case FifteenMinute:
		return time.Minute * 15, nil
	case ThirtyMinute:
		return time.Minute * 30, nil
	case OneHour:
		return time.Hour, nil
	case FourHour:
		return time.Hour * 4, nil
	case OneDay:
		return time.Hour * 24, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", t.String())
	}
}

// Truncate returns the bucket start for the provided time on the given timeframe.
// Bucket math is UTC based, truncating an already truncated time is a no-op.
func (t Timeframe) Truncate(at time.Time) (time.Time, error) {
	duration, err := t.Duration()
	if err != nil {
		return time.Time{}, err
	}

	return at.UTC().Truncate(duration), nil
}

// NextInterval returns the start of the next bucket after the provided time.
func NextInterval(timeframe Timeframe, now time.Time) (time.Time, error) {
	start, err := timeframe.Truncate(now)
	if err != nil {
		return time.Time{}, err
	}

	duration, err := timeframe.Duration()
	if err != nil {
		return time.Time{}, err
	}

	return start.Add(duration), nil
}
