package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
)

type fakeTicker struct {
	running bool
	snap    prices.Snapshot
}

func (f fakeTicker) Running() bool             { return f.running }
func (f fakeTicker) Snapshot() prices.Snapshot { return f.snap }

type fakeCounter int

func (c fakeCounter) ActiveSessions() int { return int(c) }

func getStatus(t *testing.T, h *SystemHandlers) SystemStatusResponse {
	t.Helper()

	req := httptest.NewRequest("GET", "/api/system/status", nil)
	w := httptest.NewRecorder()
	h.HandleSystemStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Data     SystemStatusResponse   `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response.Metadata, "timestamp")
	return response.Data
}

func TestSystemHandlers_HandleSystemStatus(t *testing.T) {
	updated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ticker := fakeTicker{running: true, snap: prices.Snapshot{
		Prices:    map[string]float64{"sui": 3.9},
		UpdatedAt: updated,
	}}

	h := NewSystemHandlers(ticker, fakeCounter(3), nil, zerolog.Nop())
	status := getStatus(t, h)

	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.TickerRunning)
	require.NotNil(t, status.PricesUpdatedAt)
	assert.True(t, updated.Equal(*status.PricesUpdatedAt))
	assert.False(t, status.UsingFallback)
	assert.Equal(t, 3, status.ActiveSessions)
	assert.Positive(t, status.Goroutines)
	assert.GreaterOrEqual(t, status.UptimeSeconds, 0.0)
	assert.GreaterOrEqual(t, status.MemoryPercent, 0.0)
}

func TestSystemHandlers_DegradedOnFallback(t *testing.T) {
	ticker := fakeTicker{snap: prices.Snapshot{UsingFallback: true, UpdatedAt: time.Now()}}

	status := getStatus(t, NewSystemHandlers(ticker, nil, nil, zerolog.Nop()))

	assert.Equal(t, "degraded", status.Status)
	assert.True(t, status.UsingFallback)
}

func TestSystemHandlers_NoDependencies(t *testing.T) {
	status := getStatus(t, NewSystemHandlers(nil, nil, nil, zerolog.Nop()))

	assert.Equal(t, "healthy", status.Status)
	assert.Nil(t, status.PricesUpdatedAt)
	assert.Zero(t, status.ActiveSessions)
}

func TestSystemHandlers_CountsRatioResolutions(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	h := NewSystemHandlers(nil, nil, bus, zerolog.Nop())

	bus.Publish("session", &events.PriceRatioResolvedData{Strategy: "haSUI/SUI", Ratio: 1.03})
	bus.Publish("session", &events.PriceRatioResolvedData{Strategy: "stSUI/SUI", Ratio: 1.02, Estimated: true})
	bus.Publish("prices", &events.PricesUpdatedData{})

	status := getStatus(t, h)
	assert.Equal(t, int64(2), status.RatioResolutions)
	assert.Equal(t, int64(1), status.EstimatedRatios)
}
