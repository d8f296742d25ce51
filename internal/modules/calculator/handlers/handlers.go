// Package handlers provides HTTP handlers for the position calculator.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/KingdomTeck/multiply/internal/domain"
	"github.com/KingdomTeck/multiply/internal/modules/calculator"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/rs/zerolog"
)

// Evaluator derives metrics, risk and display strings from a configuration.
type Evaluator interface {
	Evaluate(cfg domain.PositionConfig) calculator.Result
}

// Handler handles calculator HTTP requests
type Handler struct {
	evaluator Evaluator
	log       zerolog.Logger
}

// NewHandler creates a new calculator handler
func NewHandler(evaluator Evaluator, log zerolog.Logger) *Handler {
	return &Handler{
		evaluator: evaluator,
		log:       log.With().Str("handler", "calculator").Logger(),
	}
}

// LeverageToLTVRequest converts a leverage into its target LTV
type LeverageToLTVRequest struct {
	Leverage float64 `json:"leverage"`
}

// LTVToLeverageRequest carries raw target LTV text as typed by the user
type LTVToLeverageRequest struct {
	TargetLTV string `json:"target_ltv"`
}

// HandleGetDefaults handles GET /api/calculator/defaults
func (h *Handler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"config":       domain.DefaultPositionConfig(),
		"strategy":     markets.DefaultStrategy,
		"min_leverage": domain.MinLeverage,
		"max_leverage": domain.MaxLeverage,
		"quick_picks":  calculator.LeverageQuickPicks,
	}))
}

// HandleCalculate handles POST /api/calculator/metrics
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var cfg domain.PositionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(h.evaluator.Evaluate(cfg)))
}

// HandleLeverageToLTV handles POST /api/calculator/leverage-to-ltv
func (h *Handler) HandleLeverageToLTV(w http.ResponseWriter, r *http.Request) {
	var req LeverageToLTVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	leverage := calculator.ClampLeverage(req.Leverage)
	ltv := calculator.LeverageToLTV(leverage)

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"leverage":        leverage,
		"target_ltv":      ltv,
		"target_ltv_text": calculator.FormatTargetLTV(ltv),
	}))
}

// HandleLTVToLeverage handles POST /api/calculator/ltv-to-leverage.
// Unacceptable input is not an error; the form keeps its current leverage.
func (h *Handler) HandleLTVToLeverage(w http.ResponseWriter, r *http.Request) {
	var req LTVToLeverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	data := map[string]interface{}{"accepted": false, "leverage": nil}
	if leverage, ok := calculator.ParseTargetLTV(req.TargetLTV); ok {
		data["accepted"] = true
		data["leverage"] = leverage
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
