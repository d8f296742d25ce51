package markets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset(t *testing.T) {
	p, ok := Preset("haSUI/SUI")
	require.True(t, ok)
	assert.Equal(t, "Loop haSUI", p.Name)
	assert.Equal(t, 90.0, p.LiquidationLTV)
	assert.Equal(t, PriceIDs{Collateral: "ha-sui", Debt: "sui"}, p.PriceIDs)

	p, ok = Preset("stSUI/SUI")
	require.True(t, ok)
	assert.Equal(t, 17.3, p.SupplyAPY)
	assert.Equal(t, 85.0, p.LiquidationLTV)

	_, ok = Preset(CustomStrategy)
	assert.False(t, ok)
}

func TestIsStrategy(t *testing.T) {
	assert.True(t, IsStrategy(DefaultStrategy))
	assert.True(t, IsStrategy(CustomStrategy))
	assert.False(t, IsStrategy("WAL/SUI"))
}

func TestPresets_ReturnsCopy(t *testing.T) {
	list := Presets()
	require.Len(t, list, 2)
	list[0].SupplyAPY = 0

	p, _ := Preset(list[0].Key)
	assert.Equal(t, 45.2, p.SupplyAPY)
}

func TestSupportedTokensHaveFallbackPrices(t *testing.T) {
	ids := TokenIDs()
	require.Len(t, ids, len(SupportedTokens()))

	for _, id := range ids {
		price, ok := FallbackPrice(id)
		assert.True(t, ok, id)
		assert.Greater(t, price, 0.0, id)

		tok, ok := TokenByID(id)
		assert.True(t, ok)
		assert.NotEmpty(t, tok.LogoURL)
	}
}

func TestFallbackPrices_ReturnsCopy(t *testing.T) {
	table := FallbackPrices()
	table["sui"] = 0

	price, _ := FallbackPrice("sui")
	assert.Equal(t, 3.35, price)
}
