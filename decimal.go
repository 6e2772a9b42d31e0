package xlformula

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal is the arbitrary-precision numeric type backing every Number
// value.
type Decimal = decimal.Decimal

// decimalEpsilon is the "small rate" guard used by the TVM closed-form
// formulas before they fall back to a linear approximation.
var decimalEpsilon = decimal.New(1, -10)

// rateConvergenceTolerance is RATE/IRR/XIRR's Newton-method tolerance.
var rateConvergenceTolerance = 1e-7

const maxIterations = 100

func decimalZero() Decimal { return decimal.Zero }
func decimalOne() Decimal  { return decimal.NewFromInt(1) }

// isNearZero reports whether d is within decimalEpsilon of zero, the guard
// used by PMT/FV/PV/NPER before they switch to a linear formula.
func isNearZero(d Decimal) bool {
	return d.Abs().LessThan(decimalEpsilon)
}

// isExactZero is used by Div, which treats decimal division by zero as
// exact (no epsilon tolerance, unlike isNearZero above).
func isExactZero(d Decimal) bool {
	return d.IsZero()
}

// decimalPow raises base to exponent via float64. POWER uses it; the TVM
// formulas compute (1+rate)^n with math.Pow on float64 directly.
func decimalPow(base, exponent Decimal) Decimal {
	b, _ := base.Float64()
	e, _ := exponent.Float64()
	return decimal.NewFromFloat(math.Pow(b, e))
}
