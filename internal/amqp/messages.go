// Package amqp carries market-rate batches between the rates-worker
// (which fetches from the upstream provider) and the server process
// (which applies them to the cached tier).
package amqp

import (
	"encoding/json"
	"time"
)

// RateEntry is one ordered-pair rate in micro units.
type RateEntry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	MicroRate int64  `json:"micro_rate"`
}

// RateBatchMessage is a full fetch result from the upstream provider.
// FetchedAt stamps every entry in the batch.
type RateBatchMessage struct {
	Rates     []RateEntry `json:"rates"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// NewRateBatchMessage wraps fetched entries with their fetch time.
func NewRateBatchMessage(rates []RateEntry, fetchedAt time.Time) *RateBatchMessage {
	return &RateBatchMessage{Rates: rates, FetchedAt: fetchedAt}
}

// ToJSON converts the message to JSON bytes.
func (m *RateBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RateBatchMessageFromJSON parses a message from JSON bytes.
func RateBatchMessageFromJSON(data []byte) (*RateBatchMessage, error) {
	var msg RateBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
