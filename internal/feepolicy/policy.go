package feepolicy

import "github.com/holiman/uint256"

// Threshold band around the moving average, expressed in tenths so the
// comparison stays in integer arithmetic. The exact operation order
// (average*11/10, not a 1.1 multiplier) is semantic: it changes floor
// rounding at boundary values.
const (
	upperNumerator = 11
	lowerNumerator = 9
	denominator    = 10
)

// FeeForSwap maps the current gas price and the moving average to a fee
// tier. Fees are ppm-style units. The direction is intentional: gas more
// than 10% above average halves the fee, gas more than 10% below average
// doubles it, so the swapper's combined gas+fee cost stays flatter.
// Exact boundary values keep the base fee (strict inequalities).
// Nil values count as zero, the same convention the tracker uses for
// nil observations.
func FeeForSwap(gasPrice, movingAverage *uint256.Int, baseFee uint32) uint32 {
	if gasPrice == nil {
		gasPrice = new(uint256.Int)
	}
	if movingAverage == nil {
		movingAverage = new(uint256.Int)
	}

	upper := mulDiv(movingAverage, upperNumerator, denominator)
	if gasPrice.Gt(upper) {
		return baseFee / 2
	}

	lower := mulDiv(movingAverage, lowerNumerator, denominator)
	if gasPrice.Lt(lower) {
		return baseFee * 2
	}

	return baseFee
}

func mulDiv(value *uint256.Int, num, den uint64) *uint256.Int {
	out := new(uint256.Int)
	if _, overflow := out.MulOverflow(value, uint256.NewInt(num)); overflow {
		panic("fee policy: threshold computation overflows 256 bits")
	}
	return out.Div(out, uint256.NewInt(den))
}
