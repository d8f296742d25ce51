// Package handlers provides HTTP handlers for the market catalog and price ratios.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/rs/zerolog"
)

// RatioResolver resolves a collateral/debt price ratio.
type RatioResolver interface {
	ResolvePriceRatio(ctx context.Context, collateralID, debtID string) (markets.Quote, bool)
}

// Handler handles market HTTP requests
type Handler struct {
	resolver RatioResolver
	log      zerolog.Logger
}

// NewHandler creates a new markets handler
func NewHandler(resolver RatioResolver, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		log:      log.With().Str("handler", "markets").Logger(),
	}
}

// HandleGetPresets handles GET /api/markets/presets
func (h *Handler) HandleGetPresets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"presets":          markets.Presets(),
		"custom_strategy":  markets.CustomStrategy,
		"default_strategy": markets.DefaultStrategy,
	}))
}

// HandleGetTokens handles GET /api/markets/tokens
func (h *Handler) HandleGetTokens(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(markets.SupportedTokens()))
}

// HandleGetFallbackPrices handles GET /api/markets/fallback-prices
func (h *Handler) HandleGetFallbackPrices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(markets.FallbackPrices()))
}

// HandleGetRatio handles GET /api/markets/ratio?collateral={id}&debt={id}
func (h *Handler) HandleGetRatio(w http.ResponseWriter, r *http.Request) {
	collateral := r.URL.Query().Get("collateral")
	debt := r.URL.Query().Get("debt")
	if collateral == "" || debt == "" {
		http.Error(w, "collateral and debt price ids are required", http.StatusBadRequest)
		return
	}

	quote, ok := h.resolver.ResolvePriceRatio(r.Context(), collateral, debt)

	// Absent ratio: the caller keeps its current value.
	data := map[string]interface{}{
		"collateral": collateral,
		"debt":       debt,
		"ratio":      nil,
		"estimated":  false,
	}
	if ok {
		data["ratio"] = quote.Ratio
		data["estimated"] = quote.Estimated
	} else {
		h.log.Debug().Str("collateral", collateral).Str("debt", debt).Msg("No price ratio available")
	}

	h.writeJSON(w, http.StatusOK, envelope(data))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
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
