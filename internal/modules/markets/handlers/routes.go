package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/markets", func(r chi.Router) {
		// Static tables
		r.Get("/presets", h.HandleGetPresets)
		r.Get("/tokens", h.HandleGetTokens)
		r.Get("/fallback-prices", h.HandleGetFallbackPrices)

		r.Get("/ratio", h.HandleGetRatio)
	})
}
