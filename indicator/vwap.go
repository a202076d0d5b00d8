package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// ComputeVWAP computes the volume weighted average price approximation for
// the provided candles as the arithmetic mean of their typical prices. The
// feed reports cumulative session volume rather than per candle traded
// volume, weighting by it would skew the average, so the unweighted mean is
// the value chart overlays expect. It returns false for an empty series.
func ComputeVWAP(candles []shared.Candlestick) (float64, bool) {
	if len(candles) == 0 {
		return 0, false
	}

	var sum float64
	for idx := range candles {
		sum += candles[idx].TypicalPrice()
	}

	return sum / float64(len(candles)), true
}
