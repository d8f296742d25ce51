package events

import "time"

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PricesUpdatedData carries a ticker snapshot.
type PricesUpdatedData struct {
	Prices        map[string]float64 `json:"prices"`
	UsingFallback bool               `json:"using_fallback"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EventType returns the event type for PricesUpdatedData
func (d *PricesUpdatedData) EventType() EventType {
	return PricesUpdated
}

// PriceRatioResolvedData records a committed price-ratio resolution for a session.
type PriceRatioResolvedData struct {
	SessionID string  `json:"session_id"`
	RequestID string  `json:"request_id"`
	Strategy  string  `json:"strategy"`
	Ratio     float64 `json:"ratio"`
	Estimated bool    `json:"estimated"`
}

// EventType returns the event type for PriceRatioResolvedData
func (d *PriceRatioResolvedData) EventType() EventType {
	return PriceRatioResolved
}
