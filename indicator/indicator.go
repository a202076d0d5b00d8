package indicator

import (
	"github.com/wfdlt/pulse/shared"
)

const (
	// DefaultEMAPeriod is the default lookback period for the exponential
	// moving average.
	DefaultEMAPeriod = 20
	// DefaultRSIPeriod is the default lookback period for the relative
	// strength index.
	DefaultRSIPeriod = 14
	// DefaultMACDFastPeriod is the default fast ema period for macd.
	DefaultMACDFastPeriod = 12
	// DefaultMACDSlowPeriod is the default slow ema period for macd.
	DefaultMACDSlowPeriod = 26
	// DefaultMACDSignalPeriod is the default signal ema period for macd.
	DefaultMACDSignalPeriod = 9
	// DefaultBollingerPeriod is the default lookback period for bollinger bands.
	DefaultBollingerPeriod = 20
	// DefaultBollingerBandWidth is the default standard deviation multiplier
	// for bollinger bands.
	DefaultBollingerBandWidth = float64(2)
	// DefaultStochasticKPeriod is the default lookback period for the
	// stochastic %K line.
	DefaultStochasticKPeriod = 14
	// DefaultStochasticDPeriod is the default smoothing period for the
	// stochastic %D line.
	DefaultStochasticDPeriod = 3
)

// closes extracts the close series from the provided candles.
func closes(candles []shared.Candlestick) []float64 {
	series := make([]float64, len(candles))
	for idx := range candles {
		series[idx] = candles[idx].Close
	}

	return series
}

// emaSeries computes a running exponential moving average over the provided
// values. The entry at an index is established once the index reaches
// period-1, earlier entries are zero. Callers guarantee len(values) >= period.
func emaSeries(values []float64, period int) []float64 {
	series := make([]float64, len(values))

	var sum float64
	for idx := range values[:period] {
		sum += values[idx]
	}

	ema := sum / float64(period)
	series[period-1] = ema

	multiplier := 2 / (float64(period) + 1)
	for idx := period; idx < len(values); idx++ {
		ema = (values[idx]-ema)*multiplier + ema
		series[idx] = ema
	}

	return series
}
