package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
)

// TickerStatus reports price ticker state.
type TickerStatus interface {
	Running() bool
	Snapshot() prices.Snapshot
}

// SessionCounter reports connected calculator sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status           string     `json:"status"`
	UptimeSeconds    float64    `json:"uptime_seconds"`
	Goroutines       int        `json:"goroutines"`
	CPUPercent       float64    `json:"cpu_percent"`
	MemoryPercent    float64    `json:"memory_percent"`
	TickerRunning    bool       `json:"ticker_running"`
	PricesUpdatedAt  *time.Time `json:"prices_updated_at"`
	UsingFallback    bool       `json:"using_fallback"`
	ActiveSessions   int        `json:"active_sessions"`
	RatioResolutions int64      `json:"ratio_resolutions"`
	EstimatedRatios  int64      `json:"estimated_ratios"`
}

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	ticker      TickerStatus
	sessions    SessionCounter

	mu          sync.Mutex
	resolutions int64
	estimated   int64
}

// NewSystemHandlers creates system handlers and starts counting price
// ratio resolutions published on bus. Any dependency may be nil.
func NewSystemHandlers(ticker TickerStatus, sessions SessionCounter, bus *events.Bus, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		ticker:      ticker,
		sessions:    sessions,
	}

	if bus != nil {
		bus.Subscribe(events.PriceRatioResolved, h.onRatioResolved)
	}

	return h
}

func (h *SystemHandlers) onRatioResolved(e *events.Event) {
	data, ok := e.Data.(*events.PriceRatioResolvedData)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolutions++
	if data.Estimated {
		h.estimated++
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	status := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	}

	if h.ticker != nil {
		status.TickerRunning = h.ticker.Running()
		snap := h.ticker.Snapshot()
		if !snap.UpdatedAt.IsZero() {
			updatedAt := snap.UpdatedAt
			status.PricesUpdatedAt = &updatedAt
		}
		status.UsingFallback = snap.UsingFallback
		if status.UsingFallback {
			status.Status = "degraded"
		}
	}
	if h.sessions != nil {
		status.ActiveSessions = h.sessions.ActiveSessions()
	}

	h.mu.Lock()
	status.RatioResolutions = h.resolutions
	status.EstimatedRatios = h.estimated
	h.mu.Unlock()

	h.writeJSON(w, map[string]interface{}{
		"data": status,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// getSystemStats returns host CPU and RAM usage percentages.
// CPU is sampled over 100ms so the endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
