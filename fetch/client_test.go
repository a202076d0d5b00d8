package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/wfdlt/pulse/shared"
)

func TestNewHistoryClient(t *testing.T) {
	// Ensure the client cannot be created with insane inputs.
	_, err := NewHistoryClient(&HistoryClientConfig{BaseURL: BaseURL})
	assert.Error(t, err)

	_, err = NewHistoryClient(&HistoryClientConfig{APIKey: "key"})
	assert.Error(t, err)

	client, err := NewHistoryClient(&HistoryClientConfig{APIKey: "key", BaseURL: BaseURL})
	assert.NoError(t, err)
	assert.NotNil(t, client)
}

func TestFetchCandles(t *testing.T) {
	// The history api returns candles newest first.
	payload := `[
		{"date":"2025-02-04 15:05:00","open":11,"high":16,"low":9,"close":13,"volume":6},
		{"date":"2025-02-04 15:00:00","open":10,"high":15,"low":8,"close":12,"volume":5}
	]`

	var gotPath, gotSymbol, gotKey, gotFrom, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		gotKey = r.URL.Query().Get("apikey")
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	client, err := NewHistoryClient(&HistoryClientConfig{APIKey: "key", BaseURL: srv.URL})
	assert.NoError(t, err)

	start, err := time.ParseInLocation(shared.DateLayout, "2025-02-04 15:00:00", time.UTC)
	assert.NoError(t, err)
	end := start.Add(time.Minute * 10)

	candles, err := client.FetchCandles(context.Background(), "^GSPC", shared.FiveMinute, start, end)
	assert.NoError(t, err)

	// Ensure the request carried the expected path and parameters.
	assert.Equal(t, gotPath, "/candles/5m")
	assert.Equal(t, gotSymbol, "^GSPC")
	assert.Equal(t, gotKey, "key")
	assert.Equal(t, gotFrom, "2025-02-04 15:00:00")
	assert.Equal(t, gotTo, "2025-02-04 15:10:00")

	// Ensure candles are returned ascending with their metadata set.
	assert.Equal(t, len(candles), 2)
	assert.True(t, candles[0].Date.Before(candles[1].Date))
	assert.Equal(t, candles[0].Close, float64(12))
	assert.Equal(t, candles[1].Close, float64(13))
	assert.Equal(t, candles[0].Symbol, "^GSPC")
	assert.Equal(t, candles[0].Timeframe, shared.FiveMinute)

	// Ensure a zero end omits the to parameter.
	gotTo = ""
	_, err = client.FetchCandles(context.Background(), "^GSPC", shared.FiveMinute, start, time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, gotTo, "")

	// Ensure an unknown timeframe errors without issuing a request.
	_, err = client.FetchCandles(context.Background(), "^GSPC", shared.Timeframe(99), start, end)
	assert.Error(t, err)
}

func TestFetchCandlesErrors(t *testing.T) {
	start, err := time.ParseInLocation(shared.DateLayout, "2025-02-04 15:00:00", time.UTC)
	assert.NoError(t, err)

	// Ensure a failing status code surfaces as an error.
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(failing.Close)

	client, err := NewHistoryClient(&HistoryClientConfig{APIKey: "key", BaseURL: failing.URL})
	assert.NoError(t, err)

	_, err = client.FetchCandles(context.Background(), "^GSPC", shared.FiveMinute, start, time.Time{})
	assert.Error(t, err)

	// Ensure a malformed payload surfaces as an error.
	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"soon","open":10}]`))
	}))
	t.Cleanup(malformed.Close)

	client, err = NewHistoryClient(&HistoryClientConfig{APIKey: "key", BaseURL: malformed.URL})
	assert.NoError(t, err)

	_, err = client.FetchCandles(context.Background(), "^GSPC", shared.FiveMinute, start, time.Time{})
	assert.Error(t, err)
}
