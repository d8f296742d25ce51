// Package handlers provides HTTP handlers for the live price ticker.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
	"github.com/rs/zerolog"
)

// SnapshotSource provides ticker snapshots.
type SnapshotSource interface {
	Snapshot() prices.Snapshot
	Refresh(ctx context.Context) prices.Snapshot
}

// TickerEntry is one token on the ticker.
type TickerEntry struct {
	ID      string  `json:"id" msgpack:"id"`
	Symbol  string  `json:"symbol" msgpack:"symbol"`
	Name    string  `json:"name" msgpack:"name"`
	LogoURL string  `json:"logo_url" msgpack:"logo_url"`
	Price   float64 `json:"price" msgpack:"price"`
}

// Handler handles price HTTP requests
type Handler struct {
	ticker SnapshotSource
	log    zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(ticker SnapshotSource, log zerolog.Logger) *Handler {
	return &Handler{
		ticker: ticker,
		log:    log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices handles GET /api/prices
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.snapshotResponse(h.ticker.Snapshot()))
}

// HandleRefresh handles POST /api/prices/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap := h.ticker.Refresh(r.Context())
	h.log.Info().Bool("using_fallback", snap.UsingFallback).Msg("Prices refreshed on demand")

	h.writeJSON(w, http.StatusOK, h.snapshotResponse(snap))
}

// Entries pairs each supported token with its price in snap, in catalog order.
// Tokens missing from snap are skipped.
func Entries(snap prices.Snapshot) []TickerEntry {
	entries := make([]TickerEntry, 0, len(snap.Prices))
	for _, token := range markets.SupportedTokens() {
		price, ok := snap.Prices[token.ID]
		if !ok {
			continue
		}
		entries = append(entries, TickerEntry{
			ID:      token.ID,
			Symbol:  token.Symbol,
			Name:    token.Name,
			LogoURL: token.LogoURL,
			Price:   price,
		})
	}
	return entries
}

func (h *Handler) snapshotResponse(snap prices.Snapshot) map[string]interface{} {
	var updatedAt interface{}
	if !snap.UpdatedAt.IsZero() {
		updatedAt = snap.UpdatedAt.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"data": map[string]interface{}{
			"tokens":         Entries(snap),
			"using_fallback": snap.UsingFallback,
			"updated_at":     updatedAt,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
