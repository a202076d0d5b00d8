package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// TimeoutDuration is the maximum time to wait on a response before timing out.
	TimeoutDuration = time.Second * 4
)

// Indicator represents a supported technical indicator.
type Indicator int

const (
	EMA Indicator = iota
	RSI
	MACD
	VWAP
	BollingerBands
	Stochastic
	OBV
	IndicatorSummary
)

// String stringifies the provided indicator.
func (i Indicator) String() string {
	switch i {
	case EMA:
		return "ema"
	case RSI:
		return "rsi"
	case MACD:
		return "macd"
	case VWAP:
		return "vwap"
	case BollingerBands:
		return "bollinger"
	case Stochastic:
		return "stochastic"
	case OBV:
		return "obv"
	case IndicatorSummary:
		return "all"
	default:
		return "unknown"
	}
}

// ParseIndicator parses an indicator from the provided string.
func ParseIndicator(indicator string) (Indicator, error) {
	switch indicator {
	case "ema":
		return EMA, nil
	case "rsi":
		return RSI, nil
	case "macd":
		return MACD, nil
	case "vwap":
		return VWAP, nil
	case "bollinger":
		return BollingerBands, nil
	case "stochastic":
		return Stochastic, nil
	case "obv":
		return OBV, nil
	case "all":
		return IndicatorSummary, nil
	default:
		return 0, fmt.Errorf("unknown indicator provided: %s", indicator)
	}
}

// IndicatorParams represents the optional parameters of an indicator request.
// Zero valued fields fall back to the defaults of the requested indicator.
type IndicatorParams struct {
	// Period is the lookback period for single period indicators.
	Period int
	// FastPeriod is the fast ema period for macd.
	FastPeriod int
	// SlowPeriod is the slow ema period for macd.
	SlowPeriod int
	// SignalPeriod is the signal ema period for macd.
	SignalPeriod int
	// DPeriod is the smoothing period for the stochastic %D line.
	DPeriod int
	// BandWidth is the standard deviation multiplier for bollinger bands.
	BandWidth float64
}

// IndicatorRequest represents a request to compute an indicator off thread.
type IndicatorRequest struct {
	ID        string
	Indicator Indicator
	Candles   []Candlestick
	Params    IndicatorParams
	Response  chan IndicatorResponse
}

// NewIndicatorRequest initializes a new indicator request.
func NewIndicatorRequest(indicator Indicator, candles []Candlestick, params IndicatorParams) *IndicatorRequest {
	return &IndicatorRequest{
		ID:        uuid.New().String(),
		Indicator: indicator,
		Candles:   candles,
		Params:    params,
		Response:  make(chan IndicatorResponse, 1),
	}
}

// IndicatorResponse represents the result of an indicator request.
//
// Responses complete out of order when multiple requests are in flight,
// callers sharing a response channel correlate them by their request ids.
type IndicatorResponse struct {
	// ID is the id of the originating request.
	ID string
	// Indicator is the indicator of the originating request.
	Indicator Indicator
	// Result is the computed indicator value. It is nil when the supplied
	// candles cannot support the computation, which is not an error.
	Result any
	// Err is set for malformed requests only.
	Err error
	// CalcTime is the time spent computing the result.
	CalcTime time.Duration
}
