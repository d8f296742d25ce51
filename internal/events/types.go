// Package events provides in-process event publishing.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	PricesUpdated      EventType = "PRICES_UPDATED"
	PriceRatioResolved EventType = "PRICE_RATIO_RESOLVED"
)

// Event is a published event with typed data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
