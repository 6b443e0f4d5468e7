package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gashook/internal/config"
	"gashook/internal/replay"
	"gashook/internal/storage"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input samples path is required")
	}
	pool, err := parsePool(cfg.Pool)
	if err != nil {
		return err
	}

	source, err := replay.NewFileGasSource(cfg.Input)
	if err != nil {
		return err
	}

	from := cfg.FromBlock
	if from == 0 {
		from = source.EarliestBlockNumber()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := replay.NewRunner(replay.RunConfig{
		Pool:      pool,
		BaseFee:   cfg.BaseFee,
		FromBlock: from,
		ToBlock:   cfg.ToBlock,
		BatchSize: cfg.BatchSize,
	}, source, storage.NewJsonlStorage(cfg.Out), nil, logger)

	logger.Info("simulate start",
		zap.String("in", cfg.Input),
		zap.String("pool", pool.Hex()),
		zap.Uint32("base_fee", cfg.BaseFee),
		zap.Uint64("from", from),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("out", cfg.Out),
	)

	return runner.Run(ctx)
}
