package markets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	prices map[string]float64
	err    error
	block  bool
	calls  int
}

func (s *stubSource) GetUSDPrices(ctx context.Context, ids ...string) (map[string]float64, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.prices, s.err
}

func TestResolvePriceRatio_Live(t *testing.T) {
	source := &stubSource{prices: map[string]float64{"ha-sui": 3.6, "sui": 3.0}}
	provider := NewProvider(source, time.Second, zerolog.Nop())

	quote, ok := provider.ResolvePriceRatio(context.Background(), "ha-sui", "sui")
	require.True(t, ok)
	assert.InDelta(t, 1.2, quote.Ratio, 1e-12)
	assert.False(t, quote.Estimated)
	assert.Equal(t, 1, source.calls)
}

func TestResolvePriceRatio_RemoteFailureUsesFallback(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	provider := NewProvider(source, time.Second, zerolog.Nop())

	quote, ok := provider.ResolvePriceRatio(context.Background(), "ha-sui", "sui")
	require.True(t, ok)
	assert.Equal(t, 3.45/3.35, quote.Ratio)
	assert.True(t, quote.Estimated)
}

func TestResolvePriceRatio_FallbackCases(t *testing.T) {
	tests := []struct {
		name   string
		prices map[string]float64
	}{
		{"empty response", map[string]float64{}},
		{"missing collateral", map[string]float64{"sui": 3.5}},
		{"zero debt price", map[string]float64{"ha-sui": 3.6, "sui": 0}},
		{"negative price", map[string]float64{"ha-sui": -1, "sui": 3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewProvider(&stubSource{prices: tt.prices}, time.Second, zerolog.Nop())

			quote, ok := provider.ResolvePriceRatio(context.Background(), "ha-sui", "sui")
			require.True(t, ok)
			assert.Equal(t, 3.45/3.35, quote.Ratio)
			assert.True(t, quote.Estimated)
		})
	}
}

func TestResolvePriceRatio_Timeout(t *testing.T) {
	provider := NewProvider(&stubSource{block: true}, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	quote, ok := provider.ResolvePriceRatio(context.Background(), "staking-sui", "sui")

	require.True(t, ok)
	assert.True(t, quote.Estimated)
	assert.Equal(t, 3.42/3.35, quote.Ratio)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolvePriceRatio_Absent(t *testing.T) {
	provider := NewProvider(&stubSource{err: errors.New("down")}, time.Second, zerolog.Nop())

	_, ok := provider.ResolvePriceRatio(context.Background(), "unknown-a", "unknown-b")
	assert.False(t, ok)

	_, ok = provider.ResolvePriceRatio(context.Background(), "ha-sui", "unknown-b")
	assert.False(t, ok)
}

func TestResolvePriceRatio_NilSource(t *testing.T) {
	provider := NewProvider(nil, time.Second, zerolog.Nop())

	quote, ok := provider.ResolvePriceRatio(context.Background(), "wrapped-bitcoin", "usd-coin")
	require.True(t, ok)
	assert.Equal(t, 96500.0, quote.Ratio)
	assert.True(t, quote.Estimated)
}
