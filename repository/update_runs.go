package repository

import (
	"context"
	"errors"
	"fmt"

	"portfolio-updater/models"
	"portfolio-updater/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateUpdateRun inserts a new update run
func (r *Repository) CreateUpdateRun(ctx context.Context, run *models.UpdateRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "update_runs")

	_, err := r.db.Exec(ctx, `
		INSERT INTO update_runs (id, status, total_holdings, started_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.Status, run.TotalHoldings, run.StartedAt)

	if err != nil {
		metrics.RecordDBError("insert", "update_runs")
		return fmt.Errorf("failed to create update run: %w", err)
	}

	return nil
}

// CompleteUpdateRun stores the final status and totals of a run
func (r *Repository) CompleteUpdateRun(ctx context.Context, run *models.UpdateRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("update", "update_runs")

	_, err := r.db.Exec(ctx, `
		UPDATE update_runs
		SET status = $2, successful_updates = $3, failed_symbols = $4, fallback_symbols = $5,
		    indices_fetched = $6, error = $7, duration_ms = $8, completed_at = $9
		WHERE id = $1
	`, run.ID, run.Status, run.SuccessfulUpdates, run.FailedSymbols, run.FallbackSymbols,
		run.IndicesFetched, run.Error, run.DurationMs, run.CompletedAt)

	if err != nil {
		metrics.RecordDBError("update", "update_runs")
		return fmt.Errorf("failed to complete update run: %w", err)
	}

	return nil
}

// FinishUpdateRun stores the records of a run and its final status in one
// transaction. Either both are archived or neither is.
func (r *Repository) FinishUpdateRun(ctx context.Context, run *models.UpdateRun, records map[string]models.Fundamentals) (err error) {
	tx, txRepo, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = txRepo.SaveFundamentals(ctx, run.ID, records); err != nil {
		return err
	}
	if err = txRepo.CompleteUpdateRun(ctx, run); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		observability.GetMetrics().RecordDBError("commit", "update_runs")
		return fmt.Errorf("failed to commit update run: %w", err)
	}
	return nil
}

// GetUpdateRun returns a run by ID, or nil when it does not exist
func (r *Repository) GetUpdateRun(ctx context.Context, id uuid.UUID) (*models.UpdateRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "update_runs")

	run, err := scanUpdateRun(r.db.QueryRow(ctx, `
		SELECT id, status, total_holdings, successful_updates, failed_symbols, fallback_symbols,
		       indices_fetched, error, duration_ms, started_at, completed_at
		FROM update_runs WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "update_runs")
		return nil, fmt.Errorf("failed to query update run: %w", err)
	}

	return run, nil
}

// GetUpdateRunHistory returns the most recent runs, newest first
func (r *Repository) GetUpdateRunHistory(ctx context.Context, limit int) ([]models.UpdateRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 30
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "update_runs")

	rows, err := r.db.Query(ctx, `
		SELECT id, status, total_holdings, successful_updates, failed_symbols, fallback_symbols,
		       indices_fetched, error, duration_ms, started_at, completed_at
		FROM update_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		metrics.RecordDBError("select", "update_runs")
		return nil, fmt.Errorf("failed to query update runs: %w", err)
	}
	defer rows.Close()

	var runs []models.UpdateRun
	for rows.Next() {
		run, err := scanUpdateRun(rows)
		if err != nil {
			metrics.RecordDBError("select", "update_runs")
			return nil, fmt.Errorf("failed to scan update run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

func scanUpdateRun(row pgx.Row) (*models.UpdateRun, error) {
	var run models.UpdateRun
	err := row.Scan(&run.ID, &run.Status, &run.TotalHoldings, &run.SuccessfulUpdates,
		&run.FailedSymbols, &run.FallbackSymbols, &run.IndicesFetched, &run.Error,
		&run.DurationMs, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
