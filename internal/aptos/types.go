package aptos

import (
	"encoding/json"
	"fmt"
	"time"
)

// Resource is a Move resource attached to an account. Data is kept raw so
// callers can decode the resource-specific payload.
type Resource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CoinActivity is one coin movement inside an indexed account transaction.
// Activities arrive ordered by descending transaction version.
type CoinActivity struct {
	Amount    uint64
	CoinType  string
	Timestamp time.Time
}

// SenderRecord is the sender of one indexed user transaction.
type SenderRecord struct {
	Sender    string
	Timestamp time.Time
}

// SwapEvent is one indexed swap event. IndexedType carries the full generic
// event type including the traded pair.
type SwapEvent struct {
	AmountXIn   uint64
	AmountYIn   uint64
	IndexedType string
	Version     int64
}

// Indexer timestamps come in two shapes: bare seconds for coin activities
// and fractional seconds for user transactions.
const (
	timestampLayout     = "2006-01-02T15:04:05"
	timestampLayoutFrac = "2006-01-02T15:04:05.999999"
)

// parseTimestamp decodes an indexer timestamp, accepting both layouts.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayoutFrac, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
