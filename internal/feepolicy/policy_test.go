package feepolicy

import (
	"testing"

	"github.com/holiman/uint256"
)

const baseFee = uint32(5000)

func TestFeeForSwapTiers(t *testing.T) {
	cases := []struct {
		name     string
		gasPrice uint64
		average  uint64
		want     uint32
	}{
		{name: "congested halves fee", gasPrice: 1200, average: 1000, want: 2500},
		{name: "quiet doubles fee", gasPrice: 800, average: 1000, want: 10000},
		{name: "normal keeps fee", gasPrice: 1000, average: 1000, want: 5000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FeeForSwap(uint256.NewInt(tc.gasPrice), uint256.NewInt(tc.average), baseFee)
			if got != tc.want {
				t.Fatalf("fee = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFeeForSwapBoundaries(t *testing.T) {
	// Average 1000 puts the unchanged-fee band at [900, 1100]. Strict inequalities:
	// landing exactly on a boundary keeps the base fee.
	cases := []struct {
		gasPrice uint64
		want     uint32
	}{
		{gasPrice: 1100, want: baseFee},
		{gasPrice: 1101, want: baseFee / 2},
		{gasPrice: 900, want: baseFee},
		{gasPrice: 901, want: baseFee},
		{gasPrice: 899, want: baseFee * 2},
	}

	for _, tc := range cases {
		got := FeeForSwap(uint256.NewInt(tc.gasPrice), uint256.NewInt(1000), baseFee)
		if got != tc.want {
			t.Fatalf("gas price %d: fee = %d, want %d", tc.gasPrice, got, tc.want)
		}
	}
}

func TestFeeForSwapFloorRounding(t *testing.T) {
	// Average 99: upper bound floors to 99*11/10 = 108 (not 108.9), so
	// 109 is already congested; lower bound floors to 89, so 88 is quiet.
	if got := FeeForSwap(uint256.NewInt(109), uint256.NewInt(99), baseFee); got != baseFee/2 {
		t.Fatalf("gas price 109: fee = %d, want %d", got, baseFee/2)
	}
	if got := FeeForSwap(uint256.NewInt(108), uint256.NewInt(99), baseFee); got != baseFee {
		t.Fatalf("gas price 108: fee = %d, want %d", got, baseFee)
	}
	if got := FeeForSwap(uint256.NewInt(89), uint256.NewInt(99), baseFee); got != baseFee {
		t.Fatalf("gas price 89: fee = %d, want %d", got, baseFee)
	}
	if got := FeeForSwap(uint256.NewInt(88), uint256.NewInt(99), baseFee); got != baseFee*2 {
		t.Fatalf("gas price 88: fee = %d, want %d", got, baseFee*2)
	}
}

func TestFeeForSwapNilValues(t *testing.T) {
	// Nil counts as zero, as in the tracker: a nil gas price sits below
	// any positive band, a nil average puts any positive gas above it.
	if got := FeeForSwap(nil, uint256.NewInt(1000), baseFee); got != baseFee*2 {
		t.Fatalf("nil gas price: fee = %d, want %d", got, baseFee*2)
	}
	if got := FeeForSwap(uint256.NewInt(1000), nil, baseFee); got != baseFee/2 {
		t.Fatalf("nil average: fee = %d, want %d", got, baseFee/2)
	}
	if got := FeeForSwap(nil, nil, baseFee); got != baseFee {
		t.Fatalf("nil both: fee = %d, want %d", got, baseFee)
	}
}

func TestFeeForSwapZeroAverage(t *testing.T) {
	// A zero average cannot happen through the hook (trackers are primed),
	// but the policy itself stays well defined: any positive gas price is
	// above the band.
	if got := FeeForSwap(uint256.NewInt(1), new(uint256.Int), baseFee); got != baseFee/2 {
		t.Fatalf("fee = %d, want %d", got, baseFee/2)
	}
	if got := FeeForSwap(new(uint256.Int), new(uint256.Int), baseFee); got != baseFee {
		t.Fatalf("fee = %d, want %d", got, baseFee)
	}
}
