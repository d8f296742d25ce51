package calculator

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/KingdomTeck/multiply/internal/domain"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// maxTargetLTV is the exclusive upper bound accepted from the LTV input.
	maxTargetLTV = 95.0
	// ltvPole guards the 1/(1-ltv) conversion.
	ltvPole = 0.99
	// quickPickTolerance decides when a quick-pick button counts as selected.
	quickPickTolerance = 0.1
)

// LeverageQuickPicks are the preset leverage buttons. Max selects domain.MaxLeverage.
var LeverageQuickPicks = []float64{2, 3, 5, 7, 9}

// ClampLeverage limits v to [domain.MinLeverage, domain.MaxLeverage].
func ClampLeverage(v float64) float64 {
	return math.Max(math.Min(v, domain.MaxLeverage), domain.MinLeverage)
}

// LeverageToLTV returns the loan-to-value percentage implied by leverage.
func LeverageToLTV(leverage float64) float64 {
	if leverage == 0 {
		return 0
	}
	return (1 - 1/leverage) * 100
}

// FormatTargetLTV renders an LTV the way the target input shows it.
func FormatTargetLTV(ltv float64) string {
	return strconv.FormatFloat(ltv, 'f', 1, 64)
}

// LTVToLeverage converts an LTV percentage into a clamped leverage.
// ok is false when ltv lies outside [0, 95) or is not finite.
func LTVToLeverage(ltv float64) (leverage float64, ok bool) {
	if math.IsNaN(ltv) || math.IsInf(ltv, 0) || ltv < 0 || ltv >= maxTargetLTV {
		return 0, false
	}
	decimalLTV := ltv / 100
	if decimalLTV >= ltvPole {
		return 0, false
	}
	return ClampLeverage(1 / (1 - decimalLTV)), true
}

// ParseTargetLTV parses raw LTV input text and converts it with LTVToLeverage.
// Like ParseNumericInput it reads the leading number, so "50%" means 50.
func ParseTargetLTV(text string) (leverage float64, ok bool) {
	ltv, ok := parseLeadingFloat(text)
	if !ok {
		return 0, false
	}
	return LTVToLeverage(ltv)
}

// ParseNumericInput parses a raw numeric form field. Only the leading number
// counts ("12abc" reads as 12); input without one, or one that is not
// finite, reads as 0.
func ParseNumericInput(raw string) float64 {
	v, ok := parseLeadingFloat(raw)
	if !ok || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseLeadingFloat parses the longest decimal literal at the start of s,
// after leading whitespace. ok is false when there is none.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[:i] == "-" {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	start := i
	i += countDigits(s[i:])
	mantissa := i - start
	if i < len(s) && s[i] == '.' {
		frac := countDigits(s[i+1:])
		if mantissa > 0 || frac > 0 {
			i += 1 + frac
			mantissa += frac
		}
	}
	if mantissa == 0 {
		return 0, false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if n := countDigits(s[j:]); n > 0 {
			i = j + n
		}
	}

	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Out of range literals come back as ±Inf with ErrRange.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// ActiveQuickPick returns the quick-pick matching leverage, if any.
func ActiveQuickPick(leverage float64) (float64, bool) {
	for _, pick := range LeverageQuickPicks {
		if scalar.EqualWithinAbs(leverage, pick, quickPickTolerance) {
			return pick, true
		}
	}
	return 0, false
}
