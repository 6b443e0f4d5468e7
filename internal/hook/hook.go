package hook

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gashook/internal/model"
)

// ErrMustUseDynamicFee is returned from Initialize when a pool's fee
// config does not mark the fee as dynamically overridable.
var ErrMustUseDynamicFee = errors.New("pool must use dynamic fee")

// ErrPoolNotInitialized is returned from swap callbacks dispatched before
// a successful Initialize.
var ErrPoolNotInitialized = errors.New("pool not initialized")

// ConfigurationError reports a pool configuration the hook refuses to
// govern. It is fatal to pool creation and surfaced to the host as an
// initialization failure.
type ConfigurationError struct {
	Pool   common.Address
	Reason error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pool %s: %v", e.Pool.Hex(), e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Reason
}

// Permissions declares which lifecycle callbacks a hook wants the host
// to dispatch. The host consults this once at registration; it never
// changes for a given hook.
type Permissions struct {
	Initialize bool
	BeforeSwap bool
	AfterSwap  bool
}

// Hook is the callback boundary between the pool engine and a fee
// module. The host holds the only reference and calls through this
// interface; the module never calls back into the host.
//
// Precondition: the host never invokes overlapping callbacks for the
// same pool. Each callback runs to completion inside the host's
// transaction-processing context before the next one starts.
type Hook interface {
	// Permissions is a pure query of the callbacks this hook handles.
	Permissions() Permissions

	// Initialize validates the pool's fee configuration. On failure the
	// pool must not be created under this hook's governance.
	Initialize(pool common.Address, feeConfig model.PoolFeeConfig) error

	// BeforeSwap selects the fee to apply to this swap. It must be free
	// of side effects beyond reads.
	BeforeSwap(pool common.Address, params model.SwapParams, swapCtx model.SwapContext) (model.FeeDecision, error)

	// AfterSwap runs once the swap has settled and returns the hook's
	// balance adjustment.
	AfterSwap(pool common.Address, result model.SwapResult, swapCtx model.SwapContext) (model.BalanceDelta, error)
}
