package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// SumTolerance is the largest accepted gap between a set of shares and the
// amount they divide.
const SumTolerance = 0.01

var tolerance = decimal.NewFromFloat(SumTolerance)

// RoundCents rounds v to two decimal places, half away from zero.
func RoundCents(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// sumAmounts adds float amounts exactly, so the result does not depend on order.
// It reports false if any value is NaN or infinite.
func sumAmounts(values []float64) (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, v := range values {
		if !isFinite(v) {
			return decimal.Zero, false
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total, true
}

func withinTolerance(got decimal.Decimal, want float64) bool {
	return got.Sub(decimal.NewFromFloat(want)).Abs().LessThanOrEqual(tolerance)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPositive(v float64) bool {
	return isFinite(v) && v > 0
}

func isNonNegative(v float64) bool {
	return isFinite(v) && v >= 0
}
