package calculator

import (
	"math"

	"github.com/KingdomTeck/multiply/internal/domain"
	"github.com/shopspring/decimal"
)

// Display holds the rounded strings shown on the result cards.
type Display struct {
	NetAPY           string `json:"net_apy" msgpack:"net_apy"`
	NetEarned        string `json:"net_earned" msgpack:"net_earned"`
	DailyEstimate    string `json:"daily_estimate" msgpack:"daily_estimate"`
	TotalExposure    string `json:"total_exposure" msgpack:"total_exposure"`
	CollateralAmount string `json:"collateral_amount" msgpack:"collateral_amount"`
	TotalDebt        string `json:"total_debt" msgpack:"total_debt"`
	GrossYield       string `json:"gross_yield" msgpack:"gross_yield"`
	BorrowCost       string `json:"borrow_cost" msgpack:"borrow_cost"` // sign flipped: a cost shows as "-"
	LTV              string `json:"ltv" msgpack:"ltv"`
	LiquidationPrice string `json:"liquidation_price" msgpack:"liquidation_price"`
	Leverage         string `json:"leverage" msgpack:"leverage"`
}

// Format renders m and cfg for display.
func Format(cfg domain.PositionConfig, m domain.PositionMetrics) Display {
	return Display{
		NetAPY:           fixed(m.NetAPY, 2) + "%",
		NetEarned:        fixed(m.NetEarned, 2),
		DailyEstimate:    fixed(m.DailyEstimate, 3),
		TotalExposure:    fixed(m.TotalExposure, 2),
		CollateralAmount: fixed(m.CollateralAmount, 2),
		TotalDebt:        fixed(m.TotalDebt, 2),
		GrossYield:       fixed(m.GrossYield, 2),
		BorrowCost:       signedCost(m.BorrowCost),
		LTV:              fixed(m.LTV, 2) + "%",
		LiquidationPrice: fixed(m.LiquidationPrice, 4),
		Leverage:         fixed(cfg.Leverage, 2) + "x",
	}
}

// signedCost shows a borrow cost as a deduction and a borrow reward as a gain.
func signedCost(cost float64) string {
	sign := "-"
	if cost < 0 {
		sign = "+"
	}
	return sign + fixed(math.Abs(cost), 2)
}

func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
