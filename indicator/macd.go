package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

// MACD represents a moving average convergence divergence computation.
type MACD struct {
	Value     float64
	Signal    float64
	Histogram float64
}

// ComputeMACD computes the moving average convergence divergence of the
// provided candles' closes. The macd line is the difference of the fast and
// slow exponential moving averages, established once the slow average is,
// the signal line is the signal period ema of the macd line and the
// histogram is their difference. It returns false when there are fewer than
// slowPeriod+signalPeriod candles or the periods are not sane.
func ComputeMACD(candles []shared.Candlestick, fastPeriod int, slowPeriod int, signalPeriod int) (MACD, bool) {
	if fastPeriod < 1 || slowPeriod <= fastPeriod || signalPeriod < 1 {
		return MACD{}, false
	}
	if len(candles) < slowPeriod+signalPeriod {
		return MACD{}, false
	}

	values := closes(candles)
	fast := emaSeries(values, fastPeriod)
	slow := emaSeries(values, slowPeriod)

	line := make([]float64, 0, len(values)-slowPeriod+1)
	for idx := slowPeriod - 1; idx < len(values); idx++ {
		line = append(line, fast[idx]-slow[idx])
	}

	signalSeries := emaSeries(line, signalPeriod)

	value := line[len(line)-1]
	signal := signalSeries[len(signalSeries)-1]

	return MACD{
		Value:     value,
		Signal:    signal,
		Histogram: value - signal,
	}, true
}
