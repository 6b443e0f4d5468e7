package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gashook/internal/model"
)

// Store provides Postgres persistence for tracker snapshots and fee
// decisions. Snapshots are the read-only monitoring surface; the hook
// itself never reads them back.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshots inserts or updates per-pool tracker snapshots.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snapshot := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_address, moving_average, sample_count, base_fee, last_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				moving_average = EXCLUDED.moving_average,
				sample_count = EXCLUDED.sample_count,
				base_fee = EXCLUDED.base_fee,
				last_block = GREATEST(pool_snapshots.last_block, EXCLUDED.last_block),
				updated_at = now()
		`,
			int64(snapshot.ChainID),
			snapshot.Pool,
			snapshot.MovingAverage,
			int64(snapshot.SampleCount),
			snapshot.BaseFee,
			int64(snapshot.LastBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertDecisions appends fee decision records.
func (s *Store) InsertDecisions(ctx context.Context, decisions []model.DecisionRecord) error {
	if len(decisions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, decision := range decisions {
		batch.Queue(`
			INSERT INTO fee_decisions (
				chain_id, pool_address, block_number, gas_price, moving_average, fee, override, decided_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (chain_id, pool_address, block_number) DO NOTHING
		`,
			int64(decision.ChainID),
			decision.Pool,
			int64(decision.BlockNumber),
			decision.GasPrice,
			decision.MovingAverage,
			decision.Fee,
			decision.Override,
			decision.DecidedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range decisions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads one pool's snapshot, for the export command.
func (s *Store) LoadSnapshot(ctx context.Context, chainID uint64, pool string) (model.PoolSnapshot, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT chain_id, pool_address, moving_average, sample_count, base_fee, last_block, updated_at::text
		FROM pool_snapshots
		WHERE chain_id = $1 AND pool_address = $2
	`, int64(chainID), pool)

	var snapshot model.PoolSnapshot
	var snapChainID, sampleCount, lastBlock int64
	err := row.Scan(&snapChainID, &snapshot.Pool, &snapshot.MovingAverage, &sampleCount, &snapshot.BaseFee, &lastBlock, &snapshot.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	snapshot.ChainID = uint64(snapChainID)
	snapshot.SampleCount = uint64(sampleCount)
	snapshot.LastBlock = uint64(lastBlock)
	return snapshot, true, nil
}
