package fetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/wfdlt/pulse/market"
	"github.com/wfdlt/pulse/shared"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
	// catchUpCandles sizes the backfill window of a cold catch up, per
	// timeframe.
	catchUpCandles = 300
)

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// Symbols are the tracked symbols.
	Symbols []string
	// Timeframes are the timeframes maintained per symbol.
	Timeframes []shared.Timeframe
	// HistoryClient is the candle history source.
	HistoryClient shared.CandleSource
	// Store is the candle store fed by fetched history and live prices.
	Store *market.Store
	// Archiver persists fetched candles. Archival is skipped when nil.
	Archiver shared.CandleArchiver
	// SignalCaughtUp relays the provided caught up signal for processing.
	SignalCaughtUp func(signal shared.CaughtUpSignal)
	// RefreshMinutes is the cadence of periodic candle refreshes.
	RefreshMinutes int
	// JobScheduler schedules periodic candle refreshes.
	JobScheduler *gocron.Scheduler
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanity checks pass.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if len(cfg.Symbols) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no symbols provided"))
	}
	if len(cfg.Timeframes) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no timeframes provided"))
	}
	if cfg.HistoryClient == nil {
		errs = errors.Join(errs, fmt.Errorf("history client cannot be nil"))
	}
	if cfg.Store == nil {
		errs = errors.Join(errs, fmt.Errorf("candle store cannot be nil"))
	}
	if cfg.SignalCaughtUp == nil {
		errs = errors.Join(errs, fmt.Errorf("signal caught up function cannot be nil"))
	}
	if cfg.RefreshMinutes < 1 {
		errs = errors.Join(errs, fmt.Errorf("refresh interval cannot be less than a minute"))
	}
	if cfg.JobScheduler == nil {
		errs = errors.Join(errs, fmt.Errorf("job scheduler cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Manager represents the candle fetch manager. It backfills candle history for
// tracked symbols, keeps series fresh on a schedule and folds live price
// updates into forming candles.
type Manager struct {
	cfg            *ManagerConfig
	catchUpSignals chan shared.CatchUpSignal
	priceUpdates   chan map[string]shared.PriceUpdate
	workers        chan struct{}
}

// NewManager initializes the fetch manager and registers its refresh jobs on
// the provided scheduler. The scheduler is started by the caller.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating fetch manager config: %w", err)
	}

	mgr := &Manager{
		cfg:            cfg,
		catchUpSignals: make(chan shared.CatchUpSignal, bufferSize),
		priceUpdates:   make(chan map[string]shared.PriceUpdate, bufferSize),
		workers:        make(chan struct{}, maxWorkers),
	}

	for _, symbol := range cfg.Symbols {
		for _, timeframe := range cfg.Timeframes {
			_, err := cfg.JobScheduler.Every(cfg.RefreshMinutes).Minutes().Do(func() {
				err := mgr.refreshJob(symbol, timeframe)
				if err != nil {
					cfg.Logger.Error().Msgf("refreshing %s %s candles: %v",
						symbol, timeframe.String(), err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("scheduling %s %s refresh job: %w",
					symbol, timeframe.String(), err)
			}
		}
	}

	return mgr, nil
}

// tracks returns whether the provided symbol is tracked by the manager.
func (m *Manager) tracks(symbol string) bool {
	return slices.Contains(m.cfg.Symbols, symbol)
}

// SendCatchUpSignal relays the provided catch up signal for processing.
func (m *Manager) SendCatchUpSignal(signal shared.CatchUpSignal) {
	select {
	case m.catchUpSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("catch up signal channel at capacity: %d/%d",
			len(m.catchUpSignals), bufferSize)
	}
}

// SendPriceUpdates relays the provided price snapshot for processing.
func (m *Manager) SendPriceUpdates(prices map[string]shared.PriceUpdate) {
	select {
	case m.priceUpdates <- prices:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("price update channel at capacity: %d/%d",
			len(m.priceUpdates), bufferSize)
	}
}

// archive persists the provided candles when an archiver is configured.
// Archival is best effort, failures log and never interrupt a fetch.
func (m *Manager) archive(ctx context.Context, candles []shared.Candlestick) {
	if m.cfg.Archiver == nil || len(candles) == 0 {
		return
	}

	err := m.cfg.Archiver.SaveCandles(ctx, candles)
	if err != nil {
		m.cfg.Logger.Error().Msgf("archiving %d candles: %v", len(candles), err)
	}
}

// handleCatchUpSignal backfills candle history for the provided signal. A zero
// start backfills a window sized per timeframe.
func (m *Manager) handleCatchUpSignal(ctx context.Context, signal shared.CatchUpSignal) error {
	if !m.tracks(signal.Symbol) {
		return fmt.Errorf("no tracked symbol found with name %s", signal.Symbol)
	}

	now := time.Now().UTC()
	for _, timeframe := range signal.Timeframes {
		start := signal.Start
		if start.IsZero() {
			duration, err := timeframe.Duration()
			if err != nil {
				return fmt.Errorf("sizing catch up window: %w", err)
			}

			start = now.Add(-duration * catchUpCandles)
		}

		candles, err := m.cfg.HistoryClient.FetchCandles(ctx, signal.Symbol, timeframe, start, now)
		if err != nil {
			return fmt.Errorf("catching up on %s (%s): %w", signal.Symbol, timeframe.String(), err)
		}

		for idx := range candles {
			err = m.cfg.Store.Update(candles[idx])
			if err != nil {
				return fmt.Errorf("updating %s (%s) series: %w", signal.Symbol, timeframe.String(), err)
			}
		}

		m.archive(ctx, candles)
	}

	signal.Status <- shared.Processed
	m.cfg.SignalCaughtUp(shared.NewCaughtUpSignal(signal.Symbol))

	return nil
}

// handlePriceUpdates folds the provided price snapshot into the forming
// candles of tracked symbols.
func (m *Manager) handlePriceUpdates(prices map[string]shared.PriceUpdate) {
	for _, update := range prices {
		if !m.tracks(update.Symbol) {
			continue
		}

		err := m.cfg.Store.ApplyPrice(update, m.cfg.Timeframes)
		if err != nil {
			m.cfg.Logger.Error().Msgf("applying %s price update: %v", update.Symbol, err)
		}
	}
}

// refreshJob refetches the tail of the tracked series to pick up revisions and
// candles missed between refreshes, then archives the merged range.
func (m *Manager) refreshJob(symbol string, timeframe shared.Timeframe) error {
	if !m.tracks(symbol) {
		return fmt.Errorf("no tracked symbol found with name %s", symbol)
	}

	last := m.cfg.Store.LastN(symbol, timeframe, 1)
	if len(last) == 0 {
		// Cold series are filled by catch up signals, not refreshes.
		m.cfg.Logger.Debug().Msgf("skipping refresh for cold series %s %s",
			symbol, timeframe.String())
		return nil
	}

	ctx := context.Background()
	candles, err := m.cfg.HistoryClient.FetchCandles(ctx, symbol, timeframe, last[0].Date, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("refreshing %s (%s): %w", symbol, timeframe.String(), err)
	}

	for idx := range candles {
		err = m.cfg.Store.Update(candles[idx])
		if err != nil {
			return fmt.Errorf("updating %s (%s) series: %w", symbol, timeframe.String(), err)
		}
	}

	m.archive(ctx, candles)

	return nil
}

// catchUpAll queues a cold catch up signal for every tracked symbol.
func (m *Manager) catchUpAll() {
	for _, symbol := range m.cfg.Symbols {
		m.SendCatchUpSignal(shared.NewCatchUpSignal(symbol, m.cfg.Timeframes, time.Time{}))
	}
}

// Run manages the lifecycle processes of the fetch manager.
func (m *Manager) Run(ctx context.Context) {
	m.catchUpAll()

	for {
		select {
		case signal := <-m.catchUpSignals:
			m.workers <- struct{}{}
			go func(signal shared.CatchUpSignal) {
				err := m.handleCatchUpSignal(ctx, signal)
				if err != nil {
					m.cfg.Logger.Error().Msgf("handling catch up signal: %v", err)
				}
				<-m.workers
			}(signal)
		case prices := <-m.priceUpdates:
			m.handlePriceUpdates(prices)
		case <-ctx.Done():
			return
		}
	}
}
