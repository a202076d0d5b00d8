package shared

import (
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	// PricesFrame identifies a bulk price update frame from the feed.
	PricesFrame = "prices"
	// PongFrame identifies a heartbeat response frame from the feed.
	PongFrame = "pong"
	// PingFrame identifies a heartbeat probe frame sent to the feed.
	PingFrame = "ping"
)

// PingMessage is the heartbeat probe payload sent to the feed.
var PingMessage = []byte(`{"type":"ping"}`)

// ParseFrameType returns the type of the provided feed frame.
func ParseFrameType(frame []byte) (string, error) {
	if !gjson.ValidBytes(frame) {
		return "", fmt.Errorf("malformed feed frame: %s", string(frame))
	}

	frameType := gjson.GetBytes(frame, "type")
	if !frameType.Exists() {
		return "", fmt.Errorf("feed frame has no type: %s", string(frame))
	}

	return frameType.String(), nil
}

// ParsePriceUpdates parses price updates from the provided prices frame.
func ParsePriceUpdates(frame []byte) ([]PriceUpdate, error) {
	data := gjson.GetBytes(frame, "data").Array()
	updates := make([]PriceUpdate, 0, len(data))

	for idx := range data {
		update, err := ParsePriceUpdate(data[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing price update: %w", err)
		}

		updates = append(updates, update)
	}

	return updates, nil
}
