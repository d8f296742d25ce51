// Package calculator derives risk and yield figures for a looped position.
package calculator

import (
	"math"

	"github.com/KingdomTeck/multiply/internal/domain"
)

const daysPerYear = 365

// Calculate derives PositionMetrics from cfg.
//
// Formulas:
//
//	totalExposure    = deposit × leverage
//	collateralAmount = totalExposure / priceRatio
//	totalDebt        = totalExposure − deposit
//	ltv              = totalDebt / totalExposure × 100
//	liquidationPrice = totalDebt / (collateralAmount × threshold/100)
//	netEarned        = totalExposure × supplyAPY/100 − totalDebt × borrowAPY/100
//	netAPY           = netEarned / deposit × 100
//
// Every division yields 0 when its denominator is 0, and any figure that
// overflows float64 reads as 0. The input is not validated.
func Calculate(cfg domain.PositionConfig) domain.PositionMetrics {
	totalExposure := cfg.InitialDeposit * cfg.Leverage

	collateralAmount := 0.0
	if cfg.PriceRatio != 0 {
		collateralAmount = totalExposure / cfg.PriceRatio
	}

	totalDebt := totalExposure - cfg.InitialDeposit

	ltv := 0.0
	if totalExposure != 0 {
		ltv = totalDebt / totalExposure * 100
	}

	thresholdDecimal := cfg.LiquidationThreshold / 100
	liquidationPrice := 0.0
	if collateralAmount > 0 && thresholdDecimal > 0 {
		liquidationPrice = totalDebt / (collateralAmount * thresholdDecimal)
	}

	grossYield := totalExposure * (cfg.SupplyAPY / 100)
	borrowCost := totalDebt * (cfg.BorrowAPY / 100)
	netEarned := grossYield - borrowCost

	netAPY := 0.0
	if cfg.InitialDeposit > 0 {
		netAPY = netEarned / cfg.InitialDeposit * 100
	}

	return domain.PositionMetrics{
		TotalExposure:    finite(totalExposure),
		CollateralAmount: finite(collateralAmount),
		TotalDebt:        finite(totalDebt),
		LTV:              finite(ltv),
		LiquidationPrice: finite(liquidationPrice),
		GrossYield:       finite(grossYield),
		BorrowCost:       finite(borrowCost),
		NetEarned:        finite(netEarned),
		NetAPY:           finite(netAPY),
		DailyEstimate:    finite(netEarned / daysPerYear),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
