package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gashook/internal/model"
	"gashook/internal/storage"
)

var testPool = common.HexToAddress("0x00000000000000000000000000000000000000d4")

func writeSamples(t *testing.T, dir string, samples []GasSample) string {
	t.Helper()

	path := filepath.Join(dir, "samples.jsonl")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create samples: %v", err)
	}
	defer file.Close()

	for _, sample := range samples {
		line, err := json.Marshal(sample)
		if err != nil {
			t.Fatalf("marshal sample: %v", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			t.Fatalf("write sample: %v", err)
		}
	}
	return path
}

func readDecisions(t *testing.T, path string) []model.DecisionRecord {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open decisions: %v", err)
	}
	defer file.Close()

	var records []model.DecisionRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.DecisionRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("parse decision: %v", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read decisions: %v", err)
	}
	return records
}

func TestRunnerReplaysGasSeries(t *testing.T) {
	dir := t.TempDir()
	samplesPath := writeSamples(t, dir, []GasSample{
		{BlockNumber: 1, GasPrice: "100"},
		{BlockNumber: 2, GasPrice: "130"},
		{BlockNumber: 3, GasPrice: "130"},
		{BlockNumber: 4, GasPrice: "100"},
		{BlockNumber: 5, GasPrice: "100"},
	})

	source, err := NewFileGasSource(samplesPath)
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}

	outPath := filepath.Join(dir, "decisions.jsonl")
	runner := NewRunner(RunConfig{
		ChainID:           31337,
		Pool:              testPool,
		BaseFee:           5000,
		FromBlock:         1,
		BatchSize:         2,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		MaxRetries:        1,
		RetryBackoff:      time.Millisecond,
	}, source, storage.NewJsonlStorage(outPath), nil, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDecisions(t, outPath)
	if len(records) != 5 {
		t.Fatalf("decision count = %d, want 5", len(records))
	}

	// Priming at block 1 sets average 100. From there: 100 in band,
	// 130 above the band twice, then 100 below the band of the risen
	// average, then back in band.
	wantFees := []uint32{5000, 2500, 2500, 10000, 5000}
	for i, record := range records {
		if record.Fee != wantFees[i] {
			t.Fatalf("block %d fee = %d, want %d", record.BlockNumber, record.Fee, wantFees[i])
		}
		if !record.Override {
			t.Fatalf("block %d decision not marked as override", record.BlockNumber)
		}
		if record.Pool != testPool.Hex() {
			t.Fatalf("block %d pool = %s, want %s", record.BlockNumber, record.Pool, testPool.Hex())
		}
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	samplesPath := writeSamples(t, dir, []GasSample{
		{BlockNumber: 1, GasPrice: "100"},
		{BlockNumber: 2, GasPrice: "130"},
		{BlockNumber: 3, GasPrice: "130"},
		{BlockNumber: 4, GasPrice: "100"},
		{BlockNumber: 5, GasPrice: "100"},
		{BlockNumber: 6, GasPrice: "100"},
	})

	source, err := NewFileGasSource(samplesPath)
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}

	outPath := filepath.Join(dir, "decisions.jsonl")
	cfg := RunConfig{
		ChainID:           31337,
		Pool:              testPool,
		BaseFee:           5000,
		FromBlock:         1,
		ToBlock:           5,
		BatchSize:         10,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		MaxRetries:        1,
		RetryBackoff:      time.Millisecond,
	}
	sink := storage.NewJsonlStorage(outPath)

	if err := NewRunner(cfg, source, sink, nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	cfg.ToBlock = 6
	if err := NewRunner(cfg, source, sink, nil, nil).Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	records := readDecisions(t, outPath)
	if len(records) != 6 {
		t.Fatalf("decision count = %d, want 6", len(records))
	}

	// The resumed run continues the tracker state from the checkpoint
	// instead of re-priming: after blocks 1-5 the average is 110 with
	// six samples folded in.
	last := records[5]
	if last.BlockNumber != 6 {
		t.Fatalf("last block = %d, want 6", last.BlockNumber)
	}
	if last.MovingAverage != "110" {
		t.Fatalf("resumed average = %s, want 110", last.MovingAverage)
	}
	if last.Fee != 5000 {
		t.Fatalf("resumed fee = %d, want 5000", last.Fee)
	}

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load()
	if err != nil || !ok {
		t.Fatalf("load checkpoint: ok=%v err=%v", ok, err)
	}
	if cp.LastProcessedBlock != 6 || cp.SampleCount != 7 {
		t.Fatalf("checkpoint = %+v, want block 6 with 7 samples", cp)
	}
}

type suggestingSource struct {
	*FileGasSource
	suggested *uint256.Int
}

func (s *suggestingSource) SuggestGasPrice(context.Context) (*uint256.Int, error) {
	return new(uint256.Int).Set(s.suggested), nil
}

func TestRunnerPrimesFromSuggestedGasPrice(t *testing.T) {
	dir := t.TempDir()
	samplesPath := writeSamples(t, dir, []GasSample{
		{BlockNumber: 1, GasPrice: "130"},
		{BlockNumber: 2, GasPrice: "130"},
	})

	fileSource, err := NewFileGasSource(samplesPath)
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}
	source := &suggestingSource{FileGasSource: fileSource, suggested: uint256.NewInt(100)}

	outPath := filepath.Join(dir, "decisions.jsonl")
	runner := NewRunner(RunConfig{
		Pool:      testPool,
		BaseFee:   5000,
		FromBlock: 1,
		BatchSize: 10,
	}, source, storage.NewJsonlStorage(outPath), nil, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDecisions(t, outPath)
	if len(records) != 2 {
		t.Fatalf("decision count = %d, want 2", len(records))
	}

	// Priming uses the suggested price 100, not block 1's 130, so the
	// very first swap already sees gas 30% above average.
	first := records[0]
	if first.MovingAverage != "100" {
		t.Fatalf("primed average = %s, want 100", first.MovingAverage)
	}
	if first.Fee != 2500 {
		t.Fatalf("first fee = %d, want 2500", first.Fee)
	}
}

func TestFileGasSourceMissingBlock(t *testing.T) {
	dir := t.TempDir()
	samplesPath := writeSamples(t, dir, []GasSample{{BlockNumber: 2, GasPrice: "50"}})

	source, err := NewFileGasSource(samplesPath)
	if err != nil {
		t.Fatalf("load samples: %v", err)
	}

	if _, err := source.BlockGasPrice(context.Background(), 1); err == nil {
		t.Fatal("expected error for missing block")
	}

	latest, err := source.LatestBlockNumber(context.Background())
	if err != nil || latest != 2 {
		t.Fatalf("latest = %d err=%v, want 2", latest, err)
	}
	if got := source.EarliestBlockNumber(); got != 2 {
		t.Fatalf("earliest = %d, want 2", got)
	}
}
