package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KingdomTeck/multiply/internal/modules/prices"
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

func setup(source stubSource) (*prices.Ticker, chi.Router) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	ticker := prices.NewTicker(source, nil, time.Minute, time.Second, logger)
	handler := NewHandler(ticker, logger)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return ticker, router
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response, "metadata")
	return response["data"].(map[string]interface{})
}

func TestHandleGetPrices_BeforeFirstTick(t *testing.T) {
	_, router := setup(stubSource{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/prices", nil))

	data := decodeData(t, w)
	assert.Empty(t, data["tokens"])
	assert.Nil(t, data["updated_at"])
}

func TestHandleGetPrices_AfterTick(t *testing.T) {
	ticker, router := setup(stubSource{prices: map[string]float64{"sui": 3.9, "usd-coin": 1.0}})
	ticker.Refresh(context.Background())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/prices", nil))

	data := decodeData(t, w)
	assert.Equal(t, false, data["using_fallback"])
	assert.NotNil(t, data["updated_at"])

	tokens := data["tokens"].([]interface{})
	require.Len(t, tokens, 2)
	sui := tokens[0].(map[string]interface{})
	assert.Equal(t, "SUI", sui["symbol"])
	assert.Equal(t, "https://icons.llamao.fi/icon/sui", sui["logo_url"])
	assert.Equal(t, 3.9, sui["price"])
}

func TestHandleRefresh_Fallback(t *testing.T) {
	_, router := setup(stubSource{err: errors.New("429 too many requests")})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/prices/refresh", nil))

	data := decodeData(t, w)
	assert.Equal(t, true, data["using_fallback"])
	assert.Len(t, data["tokens"], 7)
}

func TestEntries_CatalogOrder(t *testing.T) {
	entries := Entries(prices.Snapshot{Prices: map[string]float64{
		"usd-coin": 1.0,
		"ha-sui":   3.45,
		"sui":      3.35,
	}})

	require.Len(t, entries, 3)
	assert.Equal(t, "sui", entries[0].ID)
	assert.Equal(t, "ha-sui", entries[1].ID)
	assert.Equal(t, "usd-coin", entries[2].ID)
}
