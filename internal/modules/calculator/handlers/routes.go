package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all calculator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/defaults", h.HandleGetDefaults)
		r.Post("/metrics", h.HandleCalculate)

		// Leverage and LTV conversions
		r.Post("/leverage-to-ltv", h.HandleLeverageToLTV)
		r.Post("/ltv-to-leverage", h.HandleLTVToLeverage)
	})
}
