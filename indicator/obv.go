package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// ComputeOBV computes the on balance volume series for the provided candles,
// one value per candle. The series starts at zero and accumulates each
// candle's volume in the direction of its close to close move, flat moves
// carry the running total forward. A nil input yields a nil series.
func ComputeOBV(candles []shared.Candlestick) []float64 {
	if len(candles) == 0 {
		return nil
	}

	series := make([]float64, len(candles))
	for idx := 1; idx < len(candles); idx++ {
		switch {
		case candles[idx].Close > candles[idx-1].Close:
			series[idx] = series[idx-1] + candles[idx].Volume
		case candles[idx].Close < candles[idx-1].Close:
			series[idx] = series[idx-1] - candles[idx].Volume
		default:
			series[idx] = series[idx-1]
		}
	}

	return series
}
