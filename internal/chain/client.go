package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Client wraps go-ethereum RPC and provides gas price reads.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu       sync.RWMutex
	gasCache map[uint64]*uint256.Int
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		gasCache:  make(map[uint64]*uint256.Int),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// SuggestGasPrice returns the node's suggested gas price for a new
// transaction, as an unsigned 256-bit value.
func (c *Client) SuggestGasPrice(ctx context.Context) (*uint256.Int, error) {
	price, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return toUint256(price)
}

// BlockGasPrice returns the base fee of a block, using an in-memory
// cache. Pre-EIP-1559 blocks have no base fee and yield an error.
func (c *Client) BlockGasPrice(ctx context.Context, number uint64) (*uint256.Int, error) {
	c.mu.RLock()
	price, ok := c.gasCache[number]
	c.mu.RUnlock()
	if ok {
		return new(uint256.Int).Set(price), nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, err
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("block %d has no base fee", number)
	}

	price, err = toUint256(header.BaseFee)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.gasCache[number] = price
	c.mu.Unlock()

	return new(uint256.Int).Set(price), nil
}

func toUint256(value *big.Int) (*uint256.Int, error) {
	out, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("gas price does not fit in 256 bits: %s", value)
	}
	return out, nil
}
