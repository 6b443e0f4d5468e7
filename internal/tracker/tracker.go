package tracker

import (
	"fmt"

	"github.com/holiman/uint256"
)

// GasTracker maintains a running weighted average of observed gas prices
// in O(1) space. Each pool owns exactly one tracker for its lifetime.
//
// The average update is
//
//	newAverage = (oldAverage*sampleCount + gasPrice) / (sampleCount + 1)
//
// with floor division at every step. The intermediate product must fit in
// 256 bits: with gas prices bounded by 128 bits and a 64-bit sample count
// the product stays under 192 bits, so overflow is unreachable for any
// realistic input. An input outside that range is a precondition violation
// and panics rather than silently corrupting pool-lifetime state.
//
// GasTracker is not safe for concurrent use. The host's per-pool callback
// serialization is the documented precondition; there is no internal lock.
type GasTracker struct {
	movingAverage *uint256.Int
	sampleCount   uint64
}

// New returns a tracker primed with one observation, so the sample count
// is never zero when the average is read.
func New(initialGasPrice *uint256.Int) *GasTracker {
	t := &GasTracker{movingAverage: new(uint256.Int)}
	t.Observe(initialGasPrice)
	return t
}

// Restore rebuilds a tracker from persisted state. Trackers are always
// primed before their state is persisted, so a zero sample count is
// rejected.
func Restore(average *uint256.Int, sampleCount uint64) (*GasTracker, error) {
	if sampleCount == 0 {
		return nil, fmt.Errorf("restore gas tracker: sample count must be at least 1")
	}
	if average == nil {
		average = new(uint256.Int)
	}
	return &GasTracker{
		movingAverage: new(uint256.Int).Set(average),
		sampleCount:   sampleCount,
	}, nil
}

// Observe folds one gas price sample into the moving average and
// increments the sample count. It cannot fail within the documented
// numeric range and has no error path.
func (t *GasTracker) Observe(gasPrice *uint256.Int) {
	if gasPrice == nil {
		gasPrice = new(uint256.Int)
	}

	weighted := new(uint256.Int)
	if _, overflow := weighted.MulOverflow(t.movingAverage, uint256.NewInt(t.sampleCount)); overflow {
		panic(fmt.Sprintf("gas tracker: average*count overflows 256 bits (average=%s count=%d)", t.movingAverage, t.sampleCount))
	}
	if _, overflow := weighted.AddOverflow(weighted, gasPrice); overflow {
		panic(fmt.Sprintf("gas tracker: weighted sum overflows 256 bits (gas_price=%s)", gasPrice))
	}

	t.sampleCount++
	t.movingAverage = weighted.Div(weighted, uint256.NewInt(t.sampleCount))
}

// Average returns a copy of the current moving average.
func (t *GasTracker) Average() *uint256.Int {
	return new(uint256.Int).Set(t.movingAverage)
}

// SampleCount returns the number of observations folded in so far.
// It only ever increases.
func (t *GasTracker) SampleCount() uint64 {
	return t.sampleCount
}
