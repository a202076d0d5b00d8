package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wfdlt/pulse/shared"
	"go.uber.org/atomic"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
)

// EngineConfig represents the configuration for the indicator engine.
type EngineConfig struct {
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Engine represents the indicator computation engine. It executes indicator
// requests off the caller's goroutine on a bounded worker pool, responses
// complete out of order and carry their originating request ids.
type Engine struct {
	cfg       *EngineConfig
	requests  chan *shared.IndicatorRequest
	workers   chan struct{}
	processed atomic.Uint64
}

// NewEngine initializes a new indicator engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Engine{
		cfg:      cfg,
		requests: make(chan *shared.IndicatorRequest, bufferSize),
		workers:  make(chan struct{}, maxWorkers),
	}, nil
}

// SendRequest relays the provided indicator request for processing.
func (e *Engine) SendRequest(req *shared.IndicatorRequest) {
	select {
	case e.requests <- req:
		// do nothing.
	default:
		e.cfg.Logger.Error().Msgf("indicator requests channel at capacity: %d/%d",
			len(e.requests), bufferSize)
	}
}

// ProcessedRequests returns the number of requests processed by the engine.
func (e *Engine) ProcessedRequests() uint64 {
	return e.processed.Load()
}

// resolveParams fills unset request parameters with indicator defaults.
func resolveParams(indicator shared.Indicator, params shared.IndicatorParams) shared.IndicatorParams {
	if params.Period == 0 {
		switch indicator {
		case shared.EMA:
			params.Period = DefaultEMAPeriod
		case shared.RSI:
			params.Period = DefaultRSIPeriod
		case shared.BollingerBands:
			params.Period = DefaultBollingerPeriod
		case shared.Stochastic:
			params.Period = DefaultStochasticKPeriod
		}
	}

	if params.FastPeriod == 0 {
		params.FastPeriod = DefaultMACDFastPeriod
	}
	if params.SlowPeriod == 0 {
		params.SlowPeriod = DefaultMACDSlowPeriod
	}
	if params.SignalPeriod == 0 {
		params.SignalPeriod = DefaultMACDSignalPeriod
	}
	if params.DPeriod == 0 {
		params.DPeriod = DefaultStochasticDPeriod
	}
	if params.BandWidth == 0 {
		params.BandWidth = DefaultBollingerBandWidth
	}

	return params
}

// validateParams asserts the resolved parameters are sane for the indicator.
func validateParams(indicator shared.Indicator, params shared.IndicatorParams) error {
	var errs error

	switch indicator {
	case shared.EMA, shared.RSI:
		if params.Period < 1 {
			errs = errors.Join(errs, fmt.Errorf("period must be positive, got %d", params.Period))
		}
	case shared.MACD:
		if params.FastPeriod < 1 {
			errs = errors.Join(errs, fmt.Errorf("fast period must be positive, got %d", params.FastPeriod))
		}
		if params.SignalPeriod < 1 {
			errs = errors.Join(errs, fmt.Errorf("signal period must be positive, got %d", params.SignalPeriod))
		}
		if params.SlowPeriod <= params.FastPeriod {
			errs = errors.Join(errs, fmt.Errorf("slow period %d must exceed fast period %d",
				params.SlowPeriod, params.FastPeriod))
		}
	case shared.BollingerBands:
		if params.Period < 1 {
			errs = errors.Join(errs, fmt.Errorf("period must be positive, got %d", params.Period))
		}
		if params.BandWidth <= 0 {
			errs = errors.Join(errs, fmt.Errorf("band width must be positive, got %v", params.BandWidth))
		}
	case shared.Stochastic:
		if params.Period < 1 {
			errs = errors.Join(errs, fmt.Errorf("%%K period must be positive, got %d", params.Period))
		}
		if params.DPeriod < 1 {
			errs = errors.Join(errs, fmt.Errorf("%%D period must be positive, got %d", params.DPeriod))
		}
	}

	return errs
}

// handleRequest processes the provided indicator request. Requests over
// candles that cannot support the computation complete with a nil result,
// only malformed requests complete with an error.
func (e *Engine) handleRequest(req *shared.IndicatorRequest) {
	start := time.Now()

	resp := shared.IndicatorResponse{
		ID:        req.ID,
		Indicator: req.Indicator,
	}

	params := resolveParams(req.Indicator, req.Params)
	err := validateParams(req.Indicator, params)
	if err != nil {
		resp.Err = fmt.Errorf("%s params: %w", req.Indicator.String(), err)
	}

	if resp.Err == nil {
		switch req.Indicator {
		case shared.EMA:
			if value, ok := ComputeEMA(req.Candles, params.Period); ok {
				resp.Result = value
			}
		case shared.RSI:
			if value, ok := ComputeRSI(req.Candles, params.Period); ok {
				resp.Result = value
			}
		case shared.MACD:
			if value, ok := ComputeMACD(req.Candles, params.FastPeriod, params.SlowPeriod, params.SignalPeriod); ok {
				resp.Result = value
			}
		case shared.VWAP:
			if value, ok := ComputeVWAP(req.Candles); ok {
				resp.Result = value
			}
		case shared.BollingerBands:
			if value, ok := ComputeBollingerBands(req.Candles, params.Period, params.BandWidth); ok {
				resp.Result = value
			}
		case shared.Stochastic:
			if value, ok := ComputeStochastic(req.Candles, params.Period, params.DPeriod); ok {
				resp.Result = value
			}
		case shared.OBV:
			if series := ComputeOBV(req.Candles); series != nil {
				resp.Result = series
			}
		case shared.IndicatorSummary:
			resp.Result = ComputeSummary(req.Candles)
		default:
			resp.Err = fmt.Errorf("unknown indicator provided: %d", req.Indicator)
		}
	}

	resp.CalcTime = time.Since(start)
	e.processed.Inc()

	select {
	case req.Response <- resp:
		// do nothing.
	default:
		e.cfg.Logger.Error().Msgf("response channel at capacity for indicator request %s: %d/%d",
			req.ID, len(req.Response), cap(req.Response))
	}
}

// Run manages the lifecycle processes of the indicator engine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case req := <-e.requests:
			e.workers <- struct{}{}
			go func(req *shared.IndicatorRequest) {
				e.handleRequest(req)
				<-e.workers
			}(req)
		case <-ctx.Done():
			return
		}
	}
}
