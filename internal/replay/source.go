package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"
)

// GasSource yields the observed gas price per block. The chain client
// satisfies it for live replay; FileGasSource backs offline simulation.
type GasSource interface {
	BlockGasPrice(ctx context.Context, number uint64) (*uint256.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// GasSample is one line of a simulation input file.
type GasSample struct {
	BlockNumber uint64 `json:"block_number"`
	GasPrice    string `json:"gas_price"`
}

// FileGasSource serves gas prices from a JSONL sample file, keyed by
// block number.
type FileGasSource struct {
	samples map[uint64]*uint256.Int
	latest  uint64
}

// NewFileGasSource loads a JSONL file of gas samples. Gas prices are
// decimal strings.
func NewFileGasSource(path string) (*FileGasSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer file.Close()

	source := &FileGasSource{samples: make(map[uint64]*uint256.Int)}

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var sample GasSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("parse sample line %d: %w", line, err)
		}

		price, err := uint256.FromDecimal(sample.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("parse gas price line %d: %w", line, err)
		}

		source.samples[sample.BlockNumber] = price
		if sample.BlockNumber > source.latest {
			source.latest = sample.BlockNumber
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	if len(source.samples) == 0 {
		return nil, fmt.Errorf("no samples in %s", path)
	}

	return source, nil
}

func (s *FileGasSource) BlockGasPrice(_ context.Context, number uint64) (*uint256.Int, error) {
	price, ok := s.samples[number]
	if !ok {
		return nil, fmt.Errorf("no sample for block %d", number)
	}
	return new(uint256.Int).Set(price), nil
}

func (s *FileGasSource) LatestBlockNumber(_ context.Context) (uint64, error) {
	return s.latest, nil
}

// EarliestBlockNumber returns the lowest sampled block, used as the
// default starting point for simulations.
func (s *FileGasSource) EarliestBlockNumber() uint64 {
	earliest := s.latest
	for number := range s.samples {
		if number < earliest {
			earliest = number
		}
	}
	return earliest
}
