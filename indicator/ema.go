package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// ComputeEMA computes the exponential moving average of the provided candles'
// closes over the provided period. The average is seeded with the simple
// moving average of the first period closes and advanced over the remainder.
// It returns false when the candles cannot cover the period.
func ComputeEMA(candles []shared.Candlestick, period int) (float64, bool) {
	if period < 1 || len(candles) < period {
		return 0, false
	}

	var sum float64
	for idx := range candles[:period] {
		sum += candles[idx].Close
	}

	ema := sum / float64(period)
	multiplier := 2 / (float64(period) + 1)
	for idx := period; idx < len(candles); idx++ {
		ema = (candles[idx].Close-ema)*multiplier + ema
	}

	return ema, true
}
