package indicator

import (
	"math"

	"github.com/wfdlt/pulse/shared"
)

// BollingerBands represents a bollinger band computation.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// ComputeBollingerBands computes bollinger bands over the trailing period
// closes of the provided candles. The middle band is the simple moving
// average of the window, the outer bands sit bandWidth population standard
// deviations on either side of it. It returns false when the candles cannot
// cover the period.
func ComputeBollingerBands(candles []shared.Candlestick, period int, bandWidth float64) (BollingerBands, bool) {
	if period < 1 || bandWidth <= 0 || len(candles) < period {
		return BollingerBands{}, false
	}

	window := candles[len(candles)-period:]

	var sum float64
	for idx := range window {
		sum += window[idx].Close
	}
	middle := sum / float64(period)

	var variance float64
	for idx := range window {
		deviation := window[idx].Close - middle
		variance += deviation * deviation
	}
	variance /= float64(period)

	sigma := math.Sqrt(variance)

	return BollingerBands{
		Upper:  middle + bandWidth*sigma,
		Middle: middle,
		Lower:  middle - bandWidth*sigma,
	}, true
}
