package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// Close đóng tất cả connections trong pool. Safe to call multiple times.
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	db.Pool = nil
	log.Info().Msg("[DATABASE] Connection pool closed")
}

// PoolStats is a snapshot of pool statistics
type PoolStats struct {
	AcquireCount         int64
	AcquireDuration      time.Duration
	AcquiredConns        int32
	CanceledAcquireCount int64
	IdleConns            int32
	MaxConns             int32
	TotalConns           int32
}

// AvgAcquireDuration returns the mean time spent waiting for a connection
func (s *PoolStats) AvgAcquireDuration() time.Duration {
	if s.AcquireCount == 0 {
		return 0
	}
	return s.AcquireDuration / time.Duration(s.AcquireCount)
}

func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	raw := db.Pool.Stat()
	return &PoolStats{
		AcquireCount:         raw.AcquireCount(),
		AcquireDuration:      raw.AcquireDuration(),
		AcquiredConns:        raw.AcquiredConns(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		IdleConns:            raw.IdleConns(),
		MaxConns:             raw.MaxConns(),
		TotalConns:           raw.TotalConns(),
	}, nil
}

// TxOptions cấu hình transaction behavior
type TxOptions struct {
	IsoLevel   TxIsoLevel
	AccessMode TxAccessMode
}

type TxIsoLevel string

const (
	// ReadCommitted (default): mỗi statement thấy snapshot tại start time của nó
	ReadCommitted  TxIsoLevel = "read committed"
	RepeatableRead TxIsoLevel = "repeatable read"
	Serializable   TxIsoLevel = "serializable"
)

type TxAccessMode string

const (
	ReadWrite TxAccessMode = "read write"
	ReadOnly  TxAccessMode = "read only"
)

func (o *TxOptions) toPgx() pgx.TxOptions {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}
	if o == nil {
		return opts
	}
	switch o.IsoLevel {
	case RepeatableRead:
		opts.IsoLevel = pgx.RepeatableRead
	case Serializable:
		opts.IsoLevel = pgx.Serializable
	}
	if o.AccessMode == ReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}
	return opts
}

// BeginTx starts a transaction. Caller must commit or rollback.
func (db *PostgresDB) BeginTx(ctx context.Context, opts *TxOptions) (pgx.Tx, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	tx, err := db.Pool.BeginTx(ctx, opts.toPgx())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// ExecuteInTransaction runs fn inside a transaction, commit on nil error, rollback otherwise.
// The error returned by fn is passed through unwrapped so callers can match sentinels.
func (db *PostgresDB) ExecuteInTransaction(ctx context.Context, opts *TxOptions, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Msg("[DATABASE] Transaction rollback error")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("transaction commit failed: %w", ClassifyError(err))
	}
	return nil
}

// MonitorPoolHealth logs pool pressure every interval until ctx is done
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Warn().Err(err).Msg("[MONITOR] Failed to get pool stats")
				continue
			}
			if stats.MaxConns > 0 {
				utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
				if utilization > 80 {
					log.Warn().Float64("utilization_pct", utilization).Int32("acquired", stats.AcquiredConns).Msg("[MONITOR] High pool utilization")
				}
			}
			if avg := stats.AvgAcquireDuration(); avg > 100*time.Millisecond {
				log.Warn().Dur("avg_acquire", avg).Msg("[MONITOR] High acquire latency")
			}
		case <-ctx.Done():
			return
		}
	}
}
