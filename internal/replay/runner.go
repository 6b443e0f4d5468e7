package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"gashook/internal/hook"
	"gashook/internal/host"
	"gashook/internal/model"
	"gashook/internal/storage"
	"gashook/internal/storage/postgres"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	ChainID           uint64
	Pool              common.Address
	BaseFee           uint32
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner drives one gas fee hook over a range of blocks: each block's
// gas price goes through a before-swap/after-swap cycle, and the fee
// decisions are written to storage. It plays the role of the pool
// engine, dispatching through the host registry.
type Runner struct {
	cfg        RunConfig
	source     GasSource
	storage    storage.Storage
	store      *postgres.Store
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. The Postgres store is
// optional; without it only the JSONL sink is written.
func NewRunner(cfg RunConfig, source GasSource, storageSink storage.Storage, store *postgres.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		storage:    storageSink,
		store:      store,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("gas source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.BaseFee == 0 {
		return fmt.Errorf("base fee must be greater than zero")
	}

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	gasHook, from, err := r.resumeOrPrime(ctx, from)
	if err != nil {
		return err
	}

	if from > to {
		r.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	registry := host.NewRegistry(r.logger)
	feeConfig := model.PoolFeeConfig{BaseFee: r.cfg.BaseFee, DynamicFee: true}
	if err := registry.Register(r.cfg.Pool, gasHook, feeConfig); err != nil {
		return fmt.Errorf("register pool: %w", err)
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		records, err := r.replayBatch(ctx, registry, gasHook, blockRange)
		if err != nil {
			return err
		}

		if err := r.storage.PutDecisionBatch(records); err != nil {
			return fmt.Errorf("store decisions: %w", err)
		}
		if err := r.persistToStore(ctx, gasHook, blockRange.To, records); err != nil {
			return err
		}

		if err := r.checkpoint.Save(Checkpoint{
			LastProcessedBlock: blockRange.To,
			MovingAverage:      gasHook.MovingAverage().Dec(),
			SampleCount:        gasHook.SampleCount(),
		}); err != nil {
			return err
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Int("decisions", len(records)),
			zap.String("moving_average", gasHook.MovingAverage().Dec()),
			zap.Uint64("sample_count", gasHook.SampleCount()),
		)
	}

	return nil
}

// resumeOrPrime restores the hook from a checkpoint when one covers the
// requested range, otherwise primes a fresh hook with the first block's
// gas price.
func (r *Runner) resumeOrPrime(ctx context.Context, from uint64) (*hook.GasFeeHook, uint64, error) {
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return nil, 0, err
	}
	if ok && cp.LastProcessedBlock >= from {
		average, err := uint256.FromDecimal(cp.MovingAverage)
		if err != nil {
			return nil, 0, fmt.Errorf("parse checkpoint average: %w", err)
		}
		gasHook, err := hook.RestoreGasFeeHook(average, cp.SampleCount, r.logger)
		if err != nil {
			return nil, 0, fmt.Errorf("restore hook: %w", err)
		}

		from = cp.LastProcessedBlock + 1
		r.logger.Info("resume from checkpoint",
			zap.Uint64("last_processed", cp.LastProcessedBlock),
			zap.Uint64("from", from),
			zap.String("moving_average", cp.MovingAverage),
			zap.Uint64("sample_count", cp.SampleCount),
		)
		return gasHook, from, nil
	}

	initialGasPrice, err := r.primingGasPrice(ctx, from)
	if err != nil {
		return nil, 0, fmt.Errorf("prime gas price at block %d: %w", from, err)
	}
	return hook.NewGasFeeHook(initialGasPrice, r.logger), from, nil
}

// suggestedGasPriceSource is implemented by sources that can estimate a
// current gas price ahead of any block read. The chain client does; the
// file source does not.
type suggestedGasPriceSource interface {
	SuggestGasPrice(ctx context.Context) (*uint256.Int, error)
}

// primingGasPrice picks the construction-time observation for a fresh
// hook: the node's suggested gas price when the source offers one,
// otherwise the first block's gas price.
func (r *Runner) primingGasPrice(ctx context.Context, from uint64) (*uint256.Int, error) {
	if suggester, ok := r.source.(suggestedGasPriceSource); ok {
		price, err := suggester.SuggestGasPrice(ctx)
		if err == nil {
			return price, nil
		}
		r.logger.Warn("suggested gas price unavailable, priming from first block", zap.Error(err))
	}
	return r.gasPriceWithRetry(ctx, from)
}

func (r *Runner) replayBatch(ctx context.Context, registry *host.Registry, gasHook *hook.GasFeeHook, blockRange BlockRange) ([]model.DecisionRecord, error) {
	records := make([]model.DecisionRecord, 0, blockRange.To-blockRange.From+1)

	for number := blockRange.From; number <= blockRange.To; number++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		gasPrice, err := r.gasPriceWithRetry(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("gas price at block %d: %w", number, err)
		}

		swapCtx := model.SwapContext{GasPrice: gasPrice, BlockNumber: number}
		averageAtDecision := gasHook.MovingAverage()

		decision, err := registry.BeforeSwap(r.cfg.Pool, model.SwapParams{}, swapCtx)
		if err != nil {
			return nil, fmt.Errorf("before swap at block %d: %w", number, err)
		}
		if _, err := registry.AfterSwap(r.cfg.Pool, model.SwapResult{}, swapCtx); err != nil {
			return nil, fmt.Errorf("after swap at block %d: %w", number, err)
		}

		records = append(records, model.DecisionRecord{
			ChainID:       r.cfg.ChainID,
			Pool:          r.cfg.Pool.Hex(),
			BlockNumber:   number,
			GasPrice:      gasPrice.Dec(),
			MovingAverage: averageAtDecision.Dec(),
			Fee:           decision.Fee,
			Override:      decision.Override,
			DecidedAt:     time.Now().UTC().Format(time.RFC3339Nano),
		})
	}

	return records, nil
}

func (r *Runner) persistToStore(ctx context.Context, gasHook *hook.GasFeeHook, lastBlock uint64, records []model.DecisionRecord) error {
	if r.store == nil {
		return nil
	}

	if err := r.store.InsertDecisions(ctx, records); err != nil {
		return fmt.Errorf("insert decisions: %w", err)
	}

	snapshot := model.PoolSnapshot{
		ChainID:       r.cfg.ChainID,
		Pool:          r.cfg.Pool.Hex(),
		MovingAverage: gasHook.MovingAverage().Dec(),
		SampleCount:   gasHook.SampleCount(),
		BaseFee:       gasHook.BaseFee(),
		LastBlock:     lastBlock,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.UpsertSnapshots(ctx, []model.PoolSnapshot{snapshot}); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *Runner) gasPriceWithRetry(ctx context.Context, number uint64) (*uint256.Int, error) {
	var price *uint256.Int
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		price, err = r.source.BlockGasPrice(ctx, number)
		if err != nil {
			r.logger.Warn("gas price fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return price, err
}
