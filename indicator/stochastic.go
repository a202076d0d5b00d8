package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// Stochastic represents a stochastic oscillator computation.
type Stochastic struct {
	K float64
	D float64
}

// ComputeStochastic computes the stochastic oscillator for the provided
// candles. %K positions the latest close within the high-low range of the
// trailing kPeriod candles, %D is the simple average of the last dPeriod %K
// values, smoothing over fewer when the history only supports fewer. It
// returns false when the candles cannot cover kPeriod.
func ComputeStochastic(candles []shared.Candlestick, kPeriod int, dPeriod int) (Stochastic, bool) {
	if kPeriod < 1 || dPeriod < 1 || len(candles) < kPeriod {
		return Stochastic{}, false
	}

	available := len(candles) - kPeriod + 1
	if available > dPeriod {
		available = dPeriod
	}

	// %K values for the most recent buckets, oldest first.
	kValues := make([]float64, 0, available)
	for offset := available - 1; offset >= 0; offset-- {
		end := len(candles) - offset
		kValues = append(kValues, stochasticK(candles[end-kPeriod:end]))
	}

	var sum float64
	for idx := range kValues {
		sum += kValues[idx]
	}

	return Stochastic{
		K: kValues[len(kValues)-1],
		D: sum / float64(len(kValues)),
	}, true
}

// stochasticK computes the raw %K value over the provided window.
func stochasticK(window []shared.Candlestick) float64 {
	low := window[0].Low
	high := window[0].High
	for idx := 1; idx < len(window); idx++ {
		if window[idx].Low < low {
			low = window[idx].Low
		}
		if window[idx].High > high {
			high = window[idx].High
		}
	}

	if high == low {
		// A flat window has no range to position the close in.
		return 50
	}

	return (window[len(window)-1].Close - low) / (high - low) * 100
}
