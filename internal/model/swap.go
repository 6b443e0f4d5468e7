package model

import (
	"math/big"

	"github.com/holiman/uint256"
)

// SwapParams carries the swap request fields the hook can see before
// execution. Amounts follow pool convention: negative AmountSpecified
// means exact input.
type SwapParams struct {
	ZeroForOne      bool     `json:"zero_for_one"`
	AmountSpecified *big.Int `json:"amount_specified"`
}

// SwapResult carries the settled amounts after a swap executed.
type SwapResult struct {
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}

// SwapContext is the execution context the host injects into each swap
// callback. The gas price is an explicit parameter so the hook never
// reads ambient chain state.
type SwapContext struct {
	GasPrice    *uint256.Int `json:"gas_price"`
	BlockNumber uint64       `json:"block_number"`
}
