package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
	"github.com/wfdlt/pulse/shared"
)

const (
	// SQL statements.
	createCandleTableSQL = "CREATE TABLE IF NOT EXISTS candle (symbol TEXT NOT NULL, timeframe TEXT NOT NULL, date TEXT NOT NULL, open REAL, high REAL, low REAL, close REAL, volume REAL, UNIQUE(symbol, timeframe, date))"
	upsertCandleSQL      = "INSERT INTO candle(symbol, timeframe, date, open, high, low, close, volume) VALUES(?,?,?,?,?,?,?,?) ON CONFLICT(symbol, timeframe, date) DO UPDATE SET open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close, volume = excluded.volume"
	candleRangeSQL       = "SELECT symbol, timeframe, date, open, high, low, close, volume FROM candle WHERE symbol = ? AND timeframe = ? AND date >= ? AND date <= ? ORDER BY date ASC"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the candle archive database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the CandleArchiver interface.
var _ shared.CandleArchiver = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("database endpoint cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database schema.
func (db *Database) bootstrap(ctx context.Context) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createCandleTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("creating candle table: %d -> %s", idx, errStr)
	}

	return nil
}

// SaveCandles persists the provided candles, updating archived slots that
// share a symbol, timeframe and date.
func (db *Database) SaveCandles(ctx context.Context, candles []shared.Candlestick) error {
	if len(candles) == 0 {
		return nil
	}

	stmts := make(rqlitehttp.SQLStatements, 0, len(candles))
	for idx := range candles {
		candle := &candles[idx]
		stmts = append(stmts, &rqlitehttp.SQLStatement{
			SQL: upsertCandleSQL,
			PositionalParams: []any{candle.Symbol, candle.Timeframe.String(),
				candle.Date.Format(shared.DateLayout), candle.Open, candle.High,
				candle.Low, candle.Close, candle.Volume},
		})
	}

	resp, err := db.client.Execute(ctx, stmts, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return fmt.Errorf("saving %d candles: %w", len(candles), err)
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("saving candles: %d -> %s", idx, errStr)
	}

	return nil
}

// FetchCandleRange fetches archived candles for the provided symbol and
// timeframe between the start and end dates, ordered by ascending date.
func (db *Database) FetchCandleRange(ctx context.Context, symbol string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	resp, err := db.client.QuerySingle(ctx, candleRangeSQL, symbol, timeframe.String(),
		start.Format(shared.DateLayout), end.Format(shared.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("fetching %s (%s) candle range: %w", symbol, timeframe.String(), err)
	}

	candles := make([]shared.Candlestick, 0)
	for _, result := range resp.GetQueryResultsAssoc() {
		if result.Error != "" {
			return nil, fmt.Errorf("fetching %s (%s) candle range: %s", symbol, timeframe.String(), result.Error)
		}

		for _, row := range result.Rows {
			candle, err := parseCandleRow(row)
			if err != nil {
				db.cfg.Logger.Debug().Msgf("skipping malformed candle row: %s", spew.Sdump(row))
				return nil, fmt.Errorf("parsing candle row: %w", err)
			}

			candles = append(candles, candle)
		}
	}

	return candles, nil
}

// rowFloat coerces the provided column value to a float64.
func rowFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// parseCandleRow parses a candlestick from the provided associative row.
func parseCandleRow(row map[string]any) (shared.Candlestick, error) {
	var candle shared.Candlestick

	symbol, ok := row["symbol"].(string)
	if !ok {
		return candle, fmt.Errorf("candle row has no symbol")
	}

	timeframeStr, ok := row["timeframe"].(string)
	if !ok {
		return candle, fmt.Errorf("candle row has no timeframe")
	}

	timeframe, err := shared.ParseTimeframe(timeframeStr)
	if err != nil {
		return candle, fmt.Errorf("parsing candle row timeframe: %w", err)
	}

	dateStr, ok := row["date"].(string)
	if !ok {
		return candle, fmt.Errorf("candle row has no date")
	}

	date, err := time.ParseInLocation(shared.DateLayout, dateStr, time.UTC)
	if err != nil {
		return candle, fmt.Errorf("parsing candle row date: %w", err)
	}

	candle.Symbol = symbol
	candle.Timeframe = timeframe
	candle.Date = date
	candle.Open = rowFloat(row["open"])
	candle.High = rowFloat(row["high"])
	candle.Low = rowFloat(row["low"])
	candle.Close = rowFloat(row["close"])
	candle.Volume = rowFloat(row["volume"])

	return candle, nil
}
