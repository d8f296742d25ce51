// Package domain holds the core value types shared across the calculator modules.
package domain

// Leverage bounds applied by both input modes.
const (
	MinLeverage = 1.1
	MaxLeverage = 10.0
)

// PositionConfig describes a looped position as entered on the calculator form.
// It is treated as a value: edits produce a new PositionConfig.
type PositionConfig struct {
	InitialDeposit       float64 `json:"initial_deposit" msgpack:"initial_deposit"`             // in debt token
	Leverage             float64 `json:"leverage" msgpack:"leverage"`                           // exposure / deposit
	PriceRatio           float64 `json:"price_ratio" msgpack:"price_ratio"`                     // collateral price in debt token
	SupplyAPY            float64 `json:"supply_apy" msgpack:"supply_apy"`                       // percent
	BorrowAPY            float64 `json:"borrow_apy" msgpack:"borrow_apy"`                       // percent, negative means rewards
	LiquidationThreshold float64 `json:"liquidation_threshold" msgpack:"liquidation_threshold"` // LTV percent
	CollateralToken      string  `json:"collateral_token" msgpack:"collateral_token"`
	DebtToken            string  `json:"debt_token" msgpack:"debt_token"`
}

// PositionMetrics are derived from a PositionConfig. Amounts are in debt token
// units except CollateralAmount, which is in collateral token units.
type PositionMetrics struct {
	TotalExposure    float64 `json:"total_exposure" msgpack:"total_exposure"`
	CollateralAmount float64 `json:"collateral_amount" msgpack:"collateral_amount"`
	TotalDebt        float64 `json:"total_debt" msgpack:"total_debt"`
	LTV              float64 `json:"ltv" msgpack:"ltv"`
	LiquidationPrice float64 `json:"liquidation_price" msgpack:"liquidation_price"`
	GrossYield       float64 `json:"gross_yield" msgpack:"gross_yield"`
	BorrowCost       float64 `json:"borrow_cost" msgpack:"borrow_cost"`
	NetEarned        float64 `json:"net_earned" msgpack:"net_earned"`
	NetAPY           float64 `json:"net_apy" msgpack:"net_apy"`
	DailyEstimate    float64 `json:"daily_estimate" msgpack:"daily_estimate"`
}

// InputMode selects which control drives leverage.
type InputMode string

const (
	ModeLeverage InputMode = "leverage"
	ModeLTV      InputMode = "ltv"
)

// Valid reports whether m is a known input mode.
func (m InputMode) Valid() bool {
	return m == ModeLeverage || m == ModeLTV
}

// DefaultPositionConfig returns the form's initial values before any preset is applied.
func DefaultPositionConfig() PositionConfig {
	return PositionConfig{
		InitialDeposit:       1000,
		Leverage:             3,
		PriceRatio:           1.1,
		SupplyAPY:            45.2,
		BorrowAPY:            1.0,
		LiquidationThreshold: 51,
		CollateralToken:      "haSUI",
		DebtToken:            "SUI",
	}
}
