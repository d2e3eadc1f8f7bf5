package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"portfolio-updater/models"
	"portfolio-updater/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveFundamentals stores every record of a run in one batch
func (r *Repository) SaveFundamentals(ctx context.Context, runID uuid.UUID, records map[string]models.Fundamentals) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "fundamentals_snapshots")

	symbols := make([]string, 0, len(records))
	for symbol := range records {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	batch := &pgx.Batch{}
	for _, symbol := range symbols {
		record, err := json.Marshal(records[symbol])
		if err != nil {
			return fmt.Errorf("failed to marshal %s record: %w", symbol, err)
		}
		batch.Queue(`
			INSERT INTO fundamentals_snapshots (run_id, symbol, record)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id, symbol) DO UPDATE SET record = EXCLUDED.record
		`, runID, symbol, record)
	}

	results := r.sendBatch(ctx, batch)
	defer results.Close()

	for _, symbol := range symbols {
		if _, err := results.Exec(); err != nil {
			metrics.RecordDBError("insert", "fundamentals_snapshots")
			return fmt.Errorf("failed to save %s snapshot: %w", symbol, err)
		}
	}

	return nil
}

// GetFundamentals returns the records archived for a run, keyed by symbol
func (r *Repository) GetFundamentals(ctx context.Context, runID uuid.UUID) (map[string]models.Fundamentals, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "fundamentals_snapshots")

	rows, err := r.db.Query(ctx, `
		SELECT symbol, record FROM fundamentals_snapshots WHERE run_id = $1
	`, runID)
	if err != nil {
		metrics.RecordDBError("select", "fundamentals_snapshots")
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.Fundamentals)
	for rows.Next() {
		var symbol string
		var data []byte
		if err := rows.Scan(&symbol, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var record models.Fundamentals
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s snapshot: %w", symbol, err)
		}
		records[symbol] = record
	}

	return records, rows.Err()
}

// batchSender is implemented by both pgxpool.Pool and pgx.Tx
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	if sender, ok := r.db.(batchSender); ok {
		return sender.SendBatch(ctx, batch)
	}
	return r.pool.SendBatch(ctx, batch)
}
