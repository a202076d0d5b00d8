package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// ComputeRSI computes the relative strength index of the provided candles'
// closes over the provided period. Only the trailing period+1 closes feed the
// gain and loss averages, so the value always matches recomputing over that
// window rather than carrying smoothed averages across the full history.
// A window without losses yields 100. It returns false when there are fewer
// than period+1 candles.
func ComputeRSI(candles []shared.Candlestick, period int) (float64, bool) {
	if period < 1 || len(candles) < period+1 {
		return 0, false
	}

	window := candles[len(candles)-(period+1):]

	var gains, losses float64
	for idx := 1; idx < len(window); idx++ {
		delta := window[idx].Close - window[idx-1].Close
		switch {
		case delta > 0:
			gains += delta
		case delta < 0:
			losses -= delta
		}
	}

	averageGain := gains / float64(period)
	averageLoss := losses / float64(period)
	if averageLoss == 0 {
		return 100, true
	}

	rs := averageGain / averageLoss
	return 100 - 100/(1+rs), true
}
