package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "gashook",
		Short:        "Gas-price-driven dynamic fee hook for AMM pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay on-chain gas prices through the fee hook",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("rpc", "", "chain RPC URL")
	replayCmd.Flags().String("pool", "", "pool address the hook governs")
	replayCmd.Flags().Uint32("base-fee", 5000, "pool base fee in ppm-style units (5000 = 0.5%)")
	replayCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	replayCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	replayCmd.Flags().Uint64("batch-size", 500, "blocks per batch")
	replayCmd.Flags().String("out", "./data/decisions.jsonl", "output JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshots and decisions")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a gas price sample file through the fee hook",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("in", "", "input gas samples JSONL")
	simulateCmd.Flags().String("pool", "", "pool address the hook governs")
	simulateCmd.Flags().Uint32("base-fee", 5000, "pool base fee in ppm-style units (5000 = 0.5%)")
	simulateCmd.Flags().Uint64("from", 0, "start block (inclusive), 0 means earliest sample")
	simulateCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest sample")
	simulateCmd.Flags().Uint64("batch-size", 500, "blocks per batch")
	simulateCmd.Flags().String("out", "./data/simulated_decisions.jsonl", "output JSONL path")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print a pool's persisted tracker snapshot",
		RunE:  runExport,
	}

	exportCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	exportCmd.Flags().Uint64("chain-id", 0, "chain ID the snapshot was recorded under")
	exportCmd.Flags().String("pool", "", "pool address")
	exportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
