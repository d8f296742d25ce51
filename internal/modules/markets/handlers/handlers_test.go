package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	prices map[string]float64
	err    error
}

func (s stubSource) GetUSDPrices(ctx context.Context, ids ...string) (map[string]float64, error) {
	return s.prices, s.err
}

func setupRouter(source markets.PriceSource) chi.Router {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	provider := markets.NewProvider(source, time.Second, logger)
	handler := NewHandler(provider, logger)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func get(t *testing.T, router http.Handler, path string) (int, interface{}) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		return w.Code, nil
	}

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response, "metadata")
	return w.Code, response["data"]
}

func TestHandleGetPresets(t *testing.T) {
	code, data := get(t, setupRouter(nil), "/api/markets/presets")
	require.Equal(t, http.StatusOK, code)

	body := data.(map[string]interface{})
	assert.Equal(t, "Custom", body["custom_strategy"])
	assert.Equal(t, "haSUI/SUI", body["default_strategy"])

	presets := body["presets"].([]interface{})
	require.Len(t, presets, 2)
	first := presets[0].(map[string]interface{})
	assert.Equal(t, "haSUI/SUI", first["key"])
	assert.Equal(t, 45.2, first["supply_apy"])
	assert.Equal(t, 90.0, first["liquidation_ltv"])
}

func TestHandleGetTokens(t *testing.T) {
	code, data := get(t, setupRouter(nil), "/api/markets/tokens")
	require.Equal(t, http.StatusOK, code)

	tokens := data.([]interface{})
	assert.Len(t, tokens, len(markets.SupportedTokens()))
	assert.Equal(t, "sui", tokens[0].(map[string]interface{})["id"])
}

func TestHandleGetFallbackPrices(t *testing.T) {
	code, data := get(t, setupRouter(nil), "/api/markets/fallback-prices")
	require.Equal(t, http.StatusOK, code)

	prices := data.(map[string]interface{})
	assert.Equal(t, 3.35, prices["sui"])
	assert.Equal(t, 96500.0, prices["wrapped-bitcoin"])
}

func TestHandleGetRatio(t *testing.T) {
	tests := []struct {
		name          string
		source        markets.PriceSource
		path          string
		wantRatio     interface{}
		wantEstimated bool
	}{
		{
			name:      "live",
			source:    stubSource{prices: map[string]float64{"ha-sui": 4.4, "sui": 4.0}},
			path:      "/api/markets/ratio?collateral=ha-sui&debt=sui",
			wantRatio: 1.1,
		},
		{
			name:          "fallback",
			source:        stubSource{err: errors.New("rate limited")},
			path:          "/api/markets/ratio?collateral=ha-sui&debt=sui",
			wantRatio:     3.45 / 3.35,
			wantEstimated: true,
		},
		{
			name:      "absent",
			source:    stubSource{err: errors.New("rate limited")},
			path:      "/api/markets/ratio?collateral=unknown&debt=sui",
			wantRatio: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, data := get(t, setupRouter(tt.source), tt.path)
			require.Equal(t, http.StatusOK, code)

			body := data.(map[string]interface{})
			if tt.wantRatio == nil {
				assert.Nil(t, body["ratio"])
			} else {
				assert.InDelta(t, tt.wantRatio, body["ratio"], 1e-9)
			}
			assert.Equal(t, tt.wantEstimated, body["estimated"])
		})
	}
}

func TestHandleGetRatio_MissingParams(t *testing.T) {
	router := setupRouter(nil)

	for _, path := range []string{
		"/api/markets/ratio",
		"/api/markets/ratio?collateral=ha-sui",
		"/api/markets/ratio?debt=sui",
	} {
		code, _ := get(t, router, path)
		assert.Equal(t, http.StatusBadRequest, code, path)
	}
}
