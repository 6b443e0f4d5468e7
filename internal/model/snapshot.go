package model

// PoolSnapshot is the externally observable tracker state for one pool.
// It is written after each moving-average refresh and read only by
// monitoring consumers; the hook itself never reads it back.
type PoolSnapshot struct {
	ChainID       uint64 `json:"chain_id"`
	Pool          string `json:"pool"`
	MovingAverage string `json:"moving_average"`
	SampleCount   uint64 `json:"sample_count"`
	BaseFee       uint32 `json:"base_fee"`
	LastBlock     uint64 `json:"last_block"`
	UpdatedAt     string `json:"updated_at"`
}

// DecisionRecord is one before-swap fee decision, normalized for storage.
type DecisionRecord struct {
	ChainID       uint64 `json:"chain_id"`
	Pool          string `json:"pool"`
	BlockNumber   uint64 `json:"block_number"`
	GasPrice      string `json:"gas_price"`
	MovingAverage string `json:"moving_average"`
	Fee           uint32 `json:"fee"`
	Override      bool   `json:"override"`
	DecidedAt     string `json:"decided_at"`
}
