package model

import "math/big"

// PoolFeeConfig describes the fee settings a pool declares at creation.
// BaseFee uses ppm-style units (5000 = 0.5%). DynamicFee must be set for
// a pool to be accepted by the gas fee hook.
type PoolFeeConfig struct {
	BaseFee    uint32 `json:"base_fee"`
	DynamicFee bool   `json:"dynamic_fee"`
}

// FeeDecision is the fee tier selected for a single swap. Override tells
// the pool engine to apply Fee to this swap only, not permanently.
type FeeDecision struct {
	Fee      uint32 `json:"fee"`
	Override bool   `json:"override"`
}

// BalanceDelta is a hook's balance adjustment returned from after-swap.
// The gas fee hook always returns the zero delta.
type BalanceDelta struct {
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

// ZeroBalanceDelta returns a neutral balance adjustment.
func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{
		Amount0: big.NewInt(0),
		Amount1: big.NewInt(0),
	}
}
