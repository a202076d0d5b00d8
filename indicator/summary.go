package indicator

import (
	"fmt"

	"github.com/wfdlt/pulse/shared"
)

// Summary represents an aggregate computation of all supported indicators
// using their default periods. Fields are nil when the provided candles
// cannot support the corresponding indicator.
type Summary struct {
	EMA            *float64
	RSI            *float64
	MACD           *MACD
	VWAP           *float64
	BollingerBands *BollingerBands
	Stochastic     *Stochastic
	OBV            *float64
}

// ComputeSummary computes all supported indicators for the provided candles
// using their default periods.
func ComputeSummary(candles []shared.Candlestick) *Summary {
	summary := &Summary{}

	if ema, ok := ComputeEMA(candles, DefaultEMAPeriod); ok {
		summary.EMA = &ema
	}

	if rsi, ok := ComputeRSI(candles, DefaultRSIPeriod); ok {
		summary.RSI = &rsi
	}

	if macd, ok := ComputeMACD(candles, DefaultMACDFastPeriod, DefaultMACDSlowPeriod, DefaultMACDSignalPeriod); ok {
		summary.MACD = &macd
	}

	if vwap, ok := ComputeVWAP(candles); ok {
		summary.VWAP = &vwap
	}

	if bands, ok := ComputeBollingerBands(candles, DefaultBollingerPeriod, DefaultBollingerBandWidth); ok {
		summary.BollingerBands = &bands
	}

	if stochastic, ok := ComputeStochastic(candles, DefaultStochasticKPeriod, DefaultStochasticDPeriod); ok {
		summary.Stochastic = &stochastic
	}

	if series := ComputeOBV(candles); len(series) > 0 {
		obv := series[len(series)-1]
		summary.OBV = &obv
	}

	return summary
}

// field describes the provided indicator value, using n/a when the candles
// could not support it.
func field(value *float64) string {
	if value == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.2f", *value)
}

// String describes the summary in a compact single line form.
func (s *Summary) String() string {
	macd := "n/a"
	if s.MACD != nil {
		macd = fmt.Sprintf("%.2f/%.2f/%.2f", s.MACD.Value, s.MACD.Signal, s.MACD.Histogram)
	}

	bands := "n/a"
	if s.BollingerBands != nil {
		bands = fmt.Sprintf("%.2f/%.2f/%.2f", s.BollingerBands.Upper, s.BollingerBands.Middle,
			s.BollingerBands.Lower)
	}

	stochastic := "n/a"
	if s.Stochastic != nil {
		stochastic = fmt.Sprintf("%.2f/%.2f", s.Stochastic.K, s.Stochastic.D)
	}

	return fmt.Sprintf("ema %s, rsi %s, macd %s, vwap %s, bands %s, stochastic %s, obv %s",
		field(s.EMA), field(s.RSI), macd, field(s.VWAP), bands, stochastic, field(s.OBV))
}
