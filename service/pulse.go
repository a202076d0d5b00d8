package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/wfdlt/pulse/database"
	"github.com/wfdlt/pulse/feed"
	"github.com/wfdlt/pulse/fetch"
	"github.com/wfdlt/pulse/indicator"
	"github.com/wfdlt/pulse/market"
	"github.com/wfdlt/pulse/shared"
)

// summaryWindow is the number of candles handed to indicator summaries.
const summaryWindow = 200

// trackedTimeframes are the timeframes maintained per tracked symbol.
var trackedTimeframes = []shared.Timeframe{shared.FiveMinute, shared.OneHour}

// PulseConfig represents the configuration struct for the pulse service.
type PulseConfig struct {
	// Symbols represents the tracked symbols.
	Symbols []string
	// FeedURL is the websocket endpoint of the push price feed.
	FeedURL string
	// HistoryURL is the candle history API endpoint.
	HistoryURL string
	// HistoryAPIKey is the candle history API key.
	HistoryAPIKey string
	// DBEndpoint is the candle archive endpoint. Archival is disabled when
	// unset.
	DBEndpoint string
	// DBUser is the candle archive user.
	DBUser string
	// DBPass is the candle archive user pass.
	DBPass string
	// RefreshMinutes is the cadence of periodic candle refreshes.
	RefreshMinutes int
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sanity checks pass.
func (cfg *PulseConfig) Validate() error {
	var errs error

	if len(cfg.Symbols) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no symbols provided for pulse service"))
	}
	if cfg.FeedURL == "" {
		errs = errors.Join(errs, fmt.Errorf("feed url cannot be an empty string"))
	}
	if cfg.HistoryURL == "" {
		errs = errors.Join(errs, fmt.Errorf("history url cannot be an empty string"))
	}
	if cfg.HistoryAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("history api key cannot be an empty string"))
	}
	if cfg.RefreshMinutes < 1 {
		errs = errors.Join(errs, fmt.Errorf("refresh interval cannot be less than a minute"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Pulse represents a market dashboard service.
type Pulse struct {
	cfg             *PulseConfig
	store           *market.Store
	feedManager     *feed.Manager
	fetchManager    *fetch.Manager
	indicatorEngine *indicator.Engine
	db              *database.Database
	jobScheduler    *gocron.Scheduler
	unsubscribeFeed func()
	logger          *zerolog.Logger
	wg              sync.WaitGroup
}

// NewPulse initializes a new pulse service.
func NewPulse(ctx context.Context, cfg *PulseConfig) (*Pulse, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating pulse service config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "pulse").Logger()

	jobScheduler := gocron.NewScheduler(time.UTC)

	store, err := market.NewStore(&market.StoreConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating candle store: %v", err)
	}

	var db *database.Database
	var archiver shared.CandleArchiver
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err = database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %v", err)
		}

		archiver = db
	}

	history, err := fetch.NewHistoryClient(&fetch.HistoryClientConfig{
		APIKey:  cfg.HistoryAPIKey,
		BaseURL: cfg.HistoryURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating history client: %v", err)
	}

	engineLogger := logger.With().Str("component", "indicatorengine").Logger()
	indicatorEngine, err := indicator.NewEngine(&indicator.EngineConfig{
		Logger: &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating indicator engine: %v", err)
	}

	// Caught up symbols have enough history for a meaningful indicator
	// summary.
	caughtUpFunc := func(signal shared.CaughtUpSignal) {
		logger.Info().Msgf("%s candle history caught up", signal.Symbol)
		summarizeSymbol(&logger, store, indicatorEngine, signal.Symbol)
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Symbols:        cfg.Symbols,
		Timeframes:     trackedTimeframes,
		HistoryClient:  history,
		Store:          store,
		Archiver:       archiver,
		SignalCaughtUp: caughtUpFunc,
		RefreshMinutes: cfg.RefreshMinutes,
		JobScheduler:   jobScheduler,
		Logger:         &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %v", err)
	}

	feedMgrLogger := logger.With().Str("component", "feedmanager").Logger()
	feedMgr, err := feed.NewManager(&feed.ManagerConfig{
		URL:    cfg.FeedURL,
		Logger: &feedMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating feed manager: %v", err)
	}

	service := &Pulse{
		cfg:             cfg,
		store:           store,
		feedManager:     feedMgr,
		fetchManager:    fetchMgr,
		indicatorEngine: indicatorEngine,
		db:              db,
		jobScheduler:    jobScheduler,
		logger:          &logger,
	}

	return service, nil
}

// summarizeSymbol requests an indicator summary for the provided symbol and
// logs the outcome.
func summarizeSymbol(logger *zerolog.Logger, store *market.Store, eng *indicator.Engine, symbol string) {
	candles := store.LastN(symbol, shared.FiveMinute, summaryWindow)
	if len(candles) == 0 {
		return
	}

	req := shared.NewIndicatorRequest(shared.IndicatorSummary, candles, shared.IndicatorParams{})
	eng.SendRequest(req)

	go func() {
		select {
		case resp := <-req.Response:
			if resp.Err != nil {
				logger.Error().Msgf("summarizing %s indicators: %v", symbol, resp.Err)
				return
			}

			summary, ok := resp.Result.(*indicator.Summary)
			if !ok {
				logger.Error().Msgf("unexpected %s summary result type", symbol)
				return
			}

			logger.Info().Msgf("%s indicators: %s", symbol, summary.String())
		case <-time.After(shared.TimeoutDuration):
			logger.Error().Msgf("summarizing %s indicators timed out", symbol)
		}
	}()
}

// Run handles the lifecycle processes of the pulse service.
func (p *Pulse) Run(ctx context.Context) {
	p.wg.Add(3)

	go func() {
		p.feedManager.Run(ctx)
		p.wg.Done()
	}()

	go func() {
		p.fetchManager.Run(ctx)
		p.wg.Done()
	}()

	go func() {
		p.indicatorEngine.Run(ctx)
		p.wg.Done()
	}()

	// Bridge live feed snapshots into forming candles. The subscription also
	// opens the feed connection.
	p.unsubscribeFeed = p.feedManager.Subscribe(func(prices map[string]shared.PriceUpdate, connected bool) {
		if connected {
			p.fetchManager.SendPriceUpdates(prices)
		}
	})

	p.jobScheduler.StartAsync()

	p.wg.Wait()

	p.unsubscribeFeed()
	p.jobScheduler.Stop()
}
