package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// PriceUpdate represents the latest quote for a symbol pushed by the feed.
type PriceUpdate struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	Open          float64
	High          float64
	Low           float64
	PreviousClose float64
	Volume        float64
	Timestamp     time.Time
}

// ParsePriceUpdate parses a price update from the provided json data.
//
// The feed uses compact quote keys: s (symbol), c (current price), d (change),
// dp (change percent), o (open), h (high), l (low), pc (previous close),
// v (cumulative volume) and t (unix seconds).
func ParsePriceUpdate(data gjson.Result) (PriceUpdate, error) {
	symbol := data.Get("s").String()
	if symbol == "" {
		return PriceUpdate{}, fmt.Errorf("price update has no symbol: %s", data.Raw)
	}

	update := PriceUpdate{
		Symbol:        symbol,
		Price:         data.Get("c").Float(),
		Change:        data.Get("d").Float(),
		ChangePercent: data.Get("dp").Float(),
		Open:          data.Get("o").Float(),
		High:          data.Get("h").Float(),
		Low:           data.Get("l").Float(),
		PreviousClose: data.Get("pc").Float(),
		Volume:        data.Get("v").Float(),
		Timestamp:     time.Unix(data.Get("t").Int(), 0).UTC(),
	}

	return update, nil
}
