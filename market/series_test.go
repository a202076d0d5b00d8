package market

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/wfdlt/pulse/shared"
)

// seriesCandle builds a five minute candle for the provided date and close.
func seriesCandle(date time.Time, close float64) shared.Candlestick {
	return shared.Candlestick{
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    10,
		Date:      date,
		Symbol:    "AAPL",
		Timeframe: shared.FiveMinute,
	}
}

func TestCandleSeries(t *testing.T) {
	// Ensure a series cannot be created with insane inputs.
	_, err := NewCandleSeries("", shared.FiveMinute, 4)
	assert.Error(t, err)

	_, err = NewCandleSeries("AAPL", shared.FiveMinute, 0)
	assert.Error(t, err)

	size := 4
	series, err := NewCandleSeries("AAPL", shared.FiveMinute, size)
	assert.NoError(t, err)

	start := time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)

	// Ensure strictly newer candles append in order.
	for idx := range size {
		err := series.Update(seriesCandle(start.Add(time.Duration(idx)*time.Minute*5), float64(idx+1)))
		assert.NoError(t, err)
	}

	assert.Equal(t, series.Len(), size)
	assert.Equal(t, series.count, size)
	assert.Equal(t, series.start, 0)

	last, ok := series.Last()
	assert.True(t, ok)
	assert.Equal(t, last.Close, float64(4))

	// Ensure updates at capacity overwrite the oldest entry.
	err = series.Update(seriesCandle(start.Add(4*time.Minute*5), 5))
	assert.NoError(t, err)
	assert.Equal(t, series.Len(), size)
	assert.Equal(t, series.start, 1)

	all := series.All()
	assert.Equal(t, len(all), size)
	assert.Equal(t, all[0].Close, float64(2))
	assert.Equal(t, all[len(all)-1].Close, float64(5))

	// Ensure a candle matching the forming candle's date replaces it.
	err = series.Update(seriesCandle(start.Add(4*time.Minute*5), 5.5))
	assert.NoError(t, err)
	assert.Equal(t, series.Len(), size)

	last, ok = series.Last()
	assert.True(t, ok)
	assert.Equal(t, last.Close, 5.5)

	// Ensure an older candle merges into its existing slot.
	err = series.Update(seriesCandle(start.Add(3*time.Minute*5), 4.5))
	assert.NoError(t, err)

	candles := series.LastN(2)
	assert.Equal(t, len(candles), 2)
	assert.Equal(t, candles[0].Close, 4.5)
	assert.Equal(t, candles[1].Close, 5.5)

	// Ensure an older candle matching no entry is rejected.
	err = series.Update(seriesCandle(start.Add(90*time.Second), 9))
	assert.Error(t, err)

	// Ensure dates stay unique and strictly increasing after every update.
	all = series.All()
	for idx := 1; idx < len(all); idx++ {
		assert.True(t, all[idx].Date.After(all[idx-1].Date))
	}

	// Ensure candles for another symbol or timeframe are rejected.
	mismatch := seriesCandle(start.Add(5*time.Minute*5), 6)
	mismatch.Symbol = "MSFT"
	assert.Error(t, series.Update(mismatch))

	mismatch = seriesCandle(start.Add(5*time.Minute*5), 6)
	mismatch.Timeframe = shared.OneHour
	assert.Error(t, series.Update(mismatch))

	// Ensure LastN clamps to the series count and tolerates insane inputs.
	assert.Equal(t, len(series.LastN(100)), size)
	assert.Nil(t, series.LastN(0))
	assert.GreaterThan(t, series.Updates(), uint64(0))
}

func TestCandleSeriesApplyPrice(t *testing.T) {
	series, err := NewCandleSeries("AAPL", shared.FiveMinute, 8)
	assert.NoError(t, err)

	// Ensure the first tick seeds a forming candle at its bucket start.
	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "AAPL",
		Price:     101,
		Volume:    500,
		Timestamp: time.Date(2024, time.March, 5, 14, 37, 12, 0, time.UTC),
	})
	assert.NoError(t, err)

	last, ok := series.Last()
	assert.True(t, ok)
	assert.Equal(t, last.Date, time.Date(2024, time.March, 5, 14, 35, 0, 0, time.UTC))
	assert.Equal(t, last.Open, float64(101))
	assert.Equal(t, last.Close, float64(101))

	// Ensure ticks within the same bucket fold into the forming candle,
	// stretching the range and keeping the furthest cumulative volume.
	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "AAPL",
		Price:     103,
		Volume:    650,
		Timestamp: time.Date(2024, time.March, 5, 14, 38, 0, 0, time.UTC),
	})
	assert.NoError(t, err)

	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "AAPL",
		Price:     100,
		Volume:    700,
		Timestamp: time.Date(2024, time.March, 5, 14, 39, 59, 0, time.UTC),
	})
	assert.NoError(t, err)

	assert.Equal(t, series.Len(), 1)

	last, ok = series.Last()
	assert.True(t, ok)
	assert.Equal(t, last.Open, float64(101))
	assert.Equal(t, last.High, float64(103))
	assert.Equal(t, last.Low, float64(100))
	assert.Equal(t, last.Close, float64(100))
	assert.Equal(t, last.Volume, float64(700))

	// Ensure a tick crossing into a new bucket rolls a new forming candle.
	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "AAPL",
		Price:     104,
		Volume:    720,
		Timestamp: time.Date(2024, time.March, 5, 14, 40, 1, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Equal(t, series.Len(), 2)

	last, ok = series.Last()
	assert.True(t, ok)
	assert.Equal(t, last.Date, time.Date(2024, time.March, 5, 14, 40, 0, 0, time.UTC))
	assert.Equal(t, last.Open, float64(104))

	// Ensure stale ticks from before the forming candle are rejected.
	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "AAPL",
		Price:     50,
		Timestamp: time.Date(2024, time.March, 5, 14, 31, 0, 0, time.UTC),
	})
	assert.Error(t, err)

	// Ensure ticks for another symbol are rejected.
	err = series.ApplyPrice(shared.PriceUpdate{
		Symbol:    "MSFT",
		Price:     415,
		Timestamp: time.Date(2024, time.March, 5, 14, 41, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}
