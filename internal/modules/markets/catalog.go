// Package markets holds the static market tables and resolves live price ratios.
package markets

// CustomStrategy is the strategy key for a user-defined pair with no preset.
const CustomStrategy = "Custom"

// DefaultStrategy is selected when a calculator session starts.
const DefaultStrategy = "haSUI/SUI"

// PriceIDs are the external price-lookup identifiers for each leg of a pair.
type PriceIDs struct {
	Collateral string `json:"collateral" msgpack:"collateral"`
	Debt       string `json:"debt" msgpack:"debt"`
}

// MarketPreset is a looping strategy with its default protocol rates.
type MarketPreset struct {
	Key            string   `json:"key" msgpack:"key"`
	Name           string   `json:"name" msgpack:"name"`
	Collateral     string   `json:"collateral" msgpack:"collateral"`
	Debt           string   `json:"debt" msgpack:"debt"`
	SupplyAPY      float64  `json:"supply_apy" msgpack:"supply_apy"`
	BorrowAPY      float64  `json:"borrow_apy" msgpack:"borrow_apy"`
	LiquidationLTV float64  `json:"liquidation_ltv" msgpack:"liquidation_ltv"`
	PriceIDs       PriceIDs `json:"price_ids" msgpack:"price_ids"`
}

// TokenDef describes a token shown on the price ticker.
type TokenDef struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	ID      string `json:"id"`
	LogoURL string `json:"logo_url"`
}

// Restricted to soft-pegged pairs, which tolerate high leverage.
var presets = []MarketPreset{
	{
		Key:            "haSUI/SUI",
		Name:           "Loop haSUI",
		Collateral:     "haSUI",
		Debt:           "SUI",
		SupplyAPY:      45.2,
		BorrowAPY:      1.0,
		LiquidationLTV: 90,
		PriceIDs:       PriceIDs{Collateral: "ha-sui", Debt: "sui"},
	},
	{
		Key:            "stSUI/SUI",
		Name:           "Loop stSUI",
		Collateral:     "stSUI",
		Debt:           "SUI",
		SupplyAPY:      17.3,
		BorrowAPY:      1.0,
		LiquidationLTV: 85,
		PriceIDs:       PriceIDs{Collateral: "staking-sui", Debt: "sui"},
	},
}

var supportedTokens = []TokenDef{
	{Symbol: "SUI", Name: "Sui", ID: "sui", LogoURL: "https://icons.llamao.fi/icon/sui"},
	{Symbol: "stSUI", Name: "Staked SUI", ID: "staking-sui", LogoURL: "https://icons.llamao.fi/icon/stSUI"},
	{Symbol: "haSUI", Name: "Haedal SUI", ID: "ha-sui", LogoURL: "https://icons.llamao.fi/icon/haSUI"},
	{Symbol: "DEEP", Name: "DeepBook", ID: "deepbook", LogoURL: "https://icons.llamao.fi/icon/DEEP"},
	{Symbol: "WAL", Name: "Walrus", ID: "walrus", LogoURL: "https://icons.llamao.fi/icon/WAL"},
	{Symbol: "wBTC", Name: "Wrapped Bitcoin", ID: "wrapped-bitcoin", LogoURL: "https://icons.llamao.fi/icon/wBTC"},
	{Symbol: "USDC", Name: "USDC", ID: "usd-coin", LogoURL: "https://icons.llamao.fi/icon/USDC"},
}

// Used whenever the price API is unreachable or rate limited.
var fallbackPrices = map[string]float64{
	"sui":             3.35,
	"staking-sui":     3.42,
	"ha-sui":          3.45,
	"deepbook":        0.06,
	"walrus":          0.15,
	"wrapped-bitcoin": 96500,
	"usd-coin":        1.00,
}

// Presets returns all strategy presets in display order.
func Presets() []MarketPreset {
	out := make([]MarketPreset, len(presets))
	copy(out, presets)
	return out
}

// Preset looks up a strategy preset by key, e.g. "haSUI/SUI".
func Preset(key string) (MarketPreset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return MarketPreset{}, false
}

// IsStrategy reports whether key names a preset or the custom strategy.
func IsStrategy(key string) bool {
	if key == CustomStrategy {
		return true
	}
	_, ok := Preset(key)
	return ok
}

// SupportedTokens returns the ticker tokens in display order.
func SupportedTokens() []TokenDef {
	out := make([]TokenDef, len(supportedTokens))
	copy(out, supportedTokens)
	return out
}

// TokenIDs returns the price ids of all supported tokens.
func TokenIDs() []string {
	ids := make([]string, 0, len(supportedTokens))
	for _, t := range supportedTokens {
		ids = append(ids, t.ID)
	}
	return ids
}

// TokenByID looks up a supported token by its price id.
func TokenByID(id string) (TokenDef, bool) {
	for _, t := range supportedTokens {
		if t.ID == id {
			return t, true
		}
	}
	return TokenDef{}, false
}

// FallbackPrice returns the static USD price for id.
func FallbackPrice(id string) (float64, bool) {
	p, ok := fallbackPrices[id]
	return p, ok
}

// FallbackPrices returns a copy of the static USD price table.
func FallbackPrices() map[string]float64 {
	out := make(map[string]float64, len(fallbackPrices))
	for id, p := range fallbackPrices {
		out[id] = p
	}
	return out
}
