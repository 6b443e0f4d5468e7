package hook

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"gashook/internal/feepolicy"
	"gashook/internal/model"
	"gashook/internal/tracker"
)

type state uint8

const (
	stateUninitialized state = iota
	stateReady
)

// GasFeeHook adjusts a pool's swap fee from the deviation between the
// current gas price and its running moving average. One instance governs
// one pool for the pool's lifetime.
//
// The tracker is primed in the constructor, so a sample count of zero is
// never observable through BeforeSwap. AfterSwap is the only writer.
type GasFeeHook struct {
	gasTracker *tracker.GasTracker
	baseFee    uint32
	state      state
	logger     *zap.Logger
}

var _ Hook = (*GasFeeHook)(nil)

// NewGasFeeHook builds a hook primed with one gas price observation.
func NewGasFeeHook(initialGasPrice *uint256.Int, logger *zap.Logger) *GasFeeHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GasFeeHook{
		gasTracker: tracker.New(initialGasPrice),
		logger:     logger,
	}
}

// RestoreGasFeeHook rebuilds a hook around persisted tracker state. The
// returned hook is uninitialized: the host must run Initialize before
// dispatching swap callbacks, as for a fresh hook.
func RestoreGasFeeHook(movingAverage *uint256.Int, sampleCount uint64, logger *zap.Logger) (*GasFeeHook, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gasTracker, err := tracker.Restore(movingAverage, sampleCount)
	if err != nil {
		return nil, err
	}
	return &GasFeeHook{gasTracker: gasTracker, logger: logger}, nil
}

// Permissions declares the three lifecycle callbacks this hook handles.
func (h *GasFeeHook) Permissions() Permissions {
	return Permissions{
		Initialize: true,
		BeforeSwap: true,
		AfterSwap:  true,
	}
}

// Initialize accepts the pool only when its fee is dynamic. The tracker
// keeps its primed state either way.
func (h *GasFeeHook) Initialize(pool common.Address, feeConfig model.PoolFeeConfig) error {
	if !feeConfig.DynamicFee {
		return &ConfigurationError{Pool: pool, Reason: ErrMustUseDynamicFee}
	}

	h.baseFee = feeConfig.BaseFee
	h.state = stateReady

	h.logger.Info("pool accepted",
		zap.String("pool", pool.Hex()),
		zap.Uint32("base_fee", feeConfig.BaseFee),
	)
	return nil
}

// BeforeSwap returns the fee override for this swap. It mutates nothing:
// repeated calls with the same gas price return the same decision.
func (h *GasFeeHook) BeforeSwap(pool common.Address, params model.SwapParams, swapCtx model.SwapContext) (model.FeeDecision, error) {
	if h.state != stateReady {
		return model.FeeDecision{}, ErrPoolNotInitialized
	}

	fee := feepolicy.FeeForSwap(swapCtx.GasPrice, h.gasTracker.Average(), h.baseFee)

	return model.FeeDecision{Fee: fee, Override: true}, nil
}

// AfterSwap refreshes the moving average with the gas price observed
// during the transaction, regardless of swap direction or size, and
// returns a neutral balance delta.
func (h *GasFeeHook) AfterSwap(pool common.Address, result model.SwapResult, swapCtx model.SwapContext) (model.BalanceDelta, error) {
	if h.state != stateReady {
		return model.BalanceDelta{}, ErrPoolNotInitialized
	}

	h.gasTracker.Observe(swapCtx.GasPrice)

	return model.ZeroBalanceDelta(), nil
}

// BaseFee returns the pool's configured base fee.
func (h *GasFeeHook) BaseFee() uint32 {
	return h.baseFee
}

// MovingAverage exposes the tracker average read-only, for snapshots and
// monitoring.
func (h *GasFeeHook) MovingAverage() *uint256.Int {
	return h.gasTracker.Average()
}

// SampleCount exposes the tracker sample count read-only.
func (h *GasFeeHook) SampleCount() uint64 {
	return h.gasTracker.SampleCount()
}
