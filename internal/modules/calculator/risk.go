package calculator

import "math"

// RiskLevel buckets a position's LTV.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Band edges in LTV percent.
const (
	moderateRiskLTV = 60.0
	highRiskLTV     = 80.0
)

// Risk is the liquidation-risk gauge for a position.
type Risk struct {
	LTV     float64   `json:"ltv" msgpack:"ltv"`
	Gauge   float64   `json:"gauge" msgpack:"gauge"` // ltv clamped to [0, 100]
	Level   RiskLevel `json:"level" msgpack:"level"`
	Label   string    `json:"label" msgpack:"label"`
	Warning bool      `json:"warning" msgpack:"warning"`
}

// AssessRisk classifies ltv into a risk band.
func AssessRisk(ltv float64) Risk {
	gauge := math.Min(math.Max(ltv, 0), 100)

	r := Risk{LTV: ltv, Gauge: gauge, Level: RiskLow, Label: "Low Risk"}
	switch {
	case gauge > highRiskLTV:
		r.Level = RiskHigh
		r.Label = "High Risk"
		r.Warning = true
	case gauge > moderateRiskLTV:
		r.Level = RiskModerate
		r.Label = "Moderate Risk"
	}
	return r
}
