package shared

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestIndicatorString(t *testing.T) {
	// Ensure all stringified indicators parse back to their source.
	indicators := []Indicator{EMA, RSI, MACD, VWAP, BollingerBands, Stochastic, OBV, IndicatorSummary}
	for idx := range indicators {
		indicator, err := ParseIndicator(indicators[idx].String())
		assert.NoError(t, err)
		assert.Equal(t, indicator, indicators[idx])
	}

	// Ensure an error is returned for an unknown indicator.
	_, err := ParseIndicator("dmi")
	assert.Error(t, err)
	assert.Equal(t, Indicator(999).String(), "unknown")
}

func TestIndicatorRequest(t *testing.T) {
	candles := []Candlestick{{Close: 10}, {Close: 20}}

	// Ensure requests can be created and can receive their responses on their
	// corresponding channels.
	req := NewIndicatorRequest(RSI, candles, IndicatorParams{Period: 14})
	assert.NotNil(t, req)
	assert.Equal(t, req.Indicator, RSI)
	assert.Equal(t, req.Params.Period, 14)
	assert.NotEqual(t, req.ID, "")

	go func() { req.Response <- IndicatorResponse{ID: req.ID, Indicator: req.Indicator} }()
	resp := <-req.Response
	assert.Equal(t, resp.ID, req.ID)
	assert.Equal(t, resp.Indicator, RSI)

	// Ensure requests receive unique ids.
	other := NewIndicatorRequest(RSI, candles, IndicatorParams{})
	assert.NotEqual(t, other.ID, req.ID)
}
