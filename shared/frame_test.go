package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestParseFrameType(t *testing.T) {
	// Ensure frame types can be parsed from feed frames.
	frameType, err := ParseFrameType([]byte(`{"type":"prices","data":[]}`))
	assert.NoError(t, err)
	assert.Equal(t, frameType, PricesFrame)

	frameType, err = ParseFrameType([]byte(`{"type":"pong"}`))
	assert.NoError(t, err)
	assert.Equal(t, frameType, PongFrame)

	// Ensure the heartbeat probe payload is a valid frame.
	frameType, err = ParseFrameType(PingMessage)
	assert.NoError(t, err)
	assert.Equal(t, frameType, PingFrame)

	// Ensure an error is returned for malformed json.
	_, err = ParseFrameType([]byte(`{"type":`))
	assert.Error(t, err)

	// Ensure an error is returned for a frame without a type.
	_, err = ParseFrameType([]byte(`{"data":[]}`))
	assert.Error(t, err)
}

func TestParsePriceUpdates(t *testing.T) {
	frame := []byte(`{"type":"prices","data":[
		{"s":"AAPL","c":182.5,"d":1.25,"dp":0.69,"o":181.1,"h":183.4,"l":180.9,"pc":181.25,"v":1250000,"t":1709649600},
		{"s":"MSFT","c":415.1,"d":-0.4,"dp":-0.1,"o":415.9,"h":416.2,"l":414.3,"pc":415.5,"v":830000,"t":1709649600}
	]}`)

	// Ensure price updates can be parsed from a prices frame.
	updates, err := ParsePriceUpdates(frame)
	assert.NoError(t, err)
	assert.Equal(t, len(updates), 2)
	assert.Equal(t, updates[0].Symbol, "AAPL")
	assert.Equal(t, updates[0].Price, 182.5)
	assert.Equal(t, updates[0].Change, 1.25)
	assert.Equal(t, updates[0].ChangePercent, 0.69)
	assert.Equal(t, updates[0].Volume, float64(1250000))
	assert.Equal(t, updates[0].Timestamp, time.Unix(1709649600, 0).UTC())
	assert.Equal(t, updates[1].Symbol, "MSFT")
	assert.Equal(t, updates[1].Change, -0.4)

	// Ensure a prices frame with an empty batch yields no updates.
	updates, err = ParsePriceUpdates([]byte(`{"type":"prices","data":[]}`))
	assert.NoError(t, err)
	assert.Equal(t, len(updates), 0)

	// Ensure an error is returned when an update has no symbol.
	_, err = ParsePriceUpdates([]byte(`{"type":"prices","data":[{"c":182.5}]}`))
	assert.Error(t, err)
}
