package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Candlestick represents a unit candlestick for a symbol.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata.
	Symbol    string
	Timeframe Timeframe
}

// TypicalPrice returns the average of the candlestick's high, low and close.
func (c *Candlestick) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// ParseCandlestick parses a candlestick from the provided json data.
func ParseCandlestick(data gjson.Result, symbol string, timeframe Timeframe) (Candlestick, error) {
	var candle Candlestick

	candle.Open = data.Get("open").Float()
	candle.Low = data.Get("low").Float()
	candle.High = data.Get("high").Float()
	candle.Close = data.Get("close").Float()
	candle.Volume = data.Get("volume").Float()

	candle.Symbol = symbol
	candle.Timeframe = timeframe

	date, err := time.ParseInLocation(DateLayout, data.Get("date").String(), time.UTC)
	if err != nil {
		return Candlestick{}, fmt.Errorf("parsing candlestick date: %w", err)
	}

	candle.Date = date

	return candle, nil
}

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result, symbol string, timeframe Timeframe) ([]Candlestick, error) {
	candles := make([]Candlestick, 0, len(data))

	for idx := range data {
		candle, err := ParseCandlestick(data[idx], symbol, timeframe)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}
