package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/wfdlt/pulse/shared"
)

const (
	// BaseURL is the default history API endpoint.
	BaseURL = "https://api.marketpulse.io/v1"
	// candlesPath is the candle history path prefix of the history API.
	candlesPath = "/candles"
	// requestTimeout bounds a single history request.
	requestTimeout = time.Second * 5
)

// HistoryClientConfig represents the configuration for the history client.
type HistoryClientConfig struct {
	// APIKey is the history API key.
	APIKey string
	// BaseURL is the history API endpoint.
	BaseURL string
}

// HistoryClient represents the candle history API client.
type HistoryClient struct {
	cfg   *HistoryClientConfig
	httpc http.Client
}

// Ensure the HistoryClient implements the CandleSource interface.
var _ shared.CandleSource = (*HistoryClient)(nil)

// NewHistoryClient initializes a new history client.
func NewHistoryClient(cfg *HistoryClientConfig) (*HistoryClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("history api key cannot be an empty string")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("history base url cannot be an empty string")
	}

	return &HistoryClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: requestTimeout},
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *HistoryClient) formURL(path string, params string) string {
	var buf bytes.Buffer
	buf.WriteString(c.cfg.BaseURL)
	buf.WriteString(path)
	buf.WriteString("?")
	buf.WriteString(params)

	return buf.String()
}

// FetchCandles fetches historical candles for the provided symbol and
// timeframe, ordered by ascending date.
func (c *HistoryClient) FetchCandles(ctx context.Context, symbol string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	_, err := timeframe.Duration()
	if err != nil {
		return nil, fmt.Errorf("validating candle request timeframe: %w", err)
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", start.Format(shared.DateLayout))
	if !end.IsZero() {
		params.Add("to", end.Format(shared.DateLayout))
	}

	formedURL := c.formURL(candlesPath+"/"+timeframe.String(), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating candle history request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching candle history (%s) for %s: %w", timeframe.String(), symbol, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candle history request for %s failed with status %s: %s",
			symbol, resp.Status, string(body))
	}

	data := gjson.ParseBytes(body).Array()
	candles, err := shared.ParseCandlesticks(data, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("parsing candle history for %s: %w", symbol, err)
	}

	// The history api returns candles newest first.
	if len(candles) > 1 && candles[0].Date.After(candles[len(candles)-1].Date) {
		for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
			candles[i], candles[j] = candles[j], candles[i]
		}
	}

	return candles, nil
}
