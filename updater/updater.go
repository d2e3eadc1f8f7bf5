package updater

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio-updater/models"
	"portfolio-updater/observability"
)

// Merger produces the record for one symbol
type Merger interface {
	Merge(ctx context.Context, symbol string) (MergeResult, error)
}

// SummaryBuilder produces the market summary
type SummaryBuilder interface {
	Build(ctx context.Context) (*models.MarketSummary, error)
}

// SnapshotWriter persists the three run outputs and returns the written path
type SnapshotWriter interface {
	WriteFundamentals(holdings []string, records map[string]models.Fundamentals) (string, error)
	WriteMarketSummary(summary *models.MarketSummary) (string, error)
	WriteRunMetadata(meta models.RunMetadata) (string, error)
}

// RunArchive records runs and their snapshots. FinishUpdateRun stores the
// records and the final status atomically.
type RunArchive interface {
	CreateUpdateRun(ctx context.Context, run *models.UpdateRun) error
	FinishUpdateRun(ctx context.Context, run *models.UpdateRun, records map[string]models.Fundamentals) error
}

// Updater runs the full update: every holding, the market summary, and the output files
type Updater struct {
	merger   Merger
	summary  SummaryBuilder
	writer   SnapshotWriter
	archive  RunArchive
	metrics  *observability.Metrics
	holdings []string
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewUpdater creates a new Updater. delay is the pause between two holdings.
func NewUpdater(merger Merger, summary SummaryBuilder, writer SnapshotWriter, holdings []string, delay time.Duration) *Updater {
	return &Updater{
		merger:   merger,
		summary:  summary,
		writer:   writer,
		metrics:  observability.GetMetrics(),
		holdings: holdings,
		delay:    delay,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// WithArchive enables recording runs in archive
func (u *Updater) WithArchive(archive RunArchive) *Updater {
	u.archive = archive
	return u
}

// Run performs one update. Per-symbol and per-index failures are logged and
// skipped. A write failure or a cancelled context aborts the run with an error.
func (u *Updater) Run(ctx context.Context) (*models.UpdateRun, error) {
	run := models.NewUpdateRun(len(u.holdings))
	logger := observability.WithRun(run.ID.String())

	logger.Info("Starting portfolio update", "started_at", run.StartedAt, "holdings", len(u.holdings))
	u.archiveCreate(ctx, logger, run)

	records := make(map[string]models.Fundamentals, len(u.holdings))
	for i, symbol := range u.holdings {
		logger.Info(fmt.Sprintf("Updating %s...", symbol), "symbol", symbol)

		result, err := u.merger.Merge(ctx, symbol)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return u.abort(ctx, logger, run, fmt.Errorf("update interrupted at %s: %w", symbol, ctxErr))
			}
			logger.Error(fmt.Sprintf("Error updating %s", symbol), "symbol", symbol, "error", err)
			run.FailedSymbols = append(run.FailedSymbols, symbol)
			u.metrics.RecordSymbolUpdate("failed")
		} else {
			records[symbol] = result.Fundamentals
			if result.Fallback {
				run.FallbackSymbols = append(run.FallbackSymbols, symbol)
			}
			u.metrics.RecordSymbolUpdate("success")
		}

		if i < len(u.holdings)-1 {
			if err := u.sleep(ctx, u.delay); err != nil {
				return u.abort(ctx, logger, run, fmt.Errorf("update interrupted after %s: %w", symbol, err))
			}
		}
	}

	path, err := u.writer.WriteFundamentals(u.holdings, records)
	if err != nil {
		u.metrics.RecordOutputWrite("portfolio_fundamentals", "failed")
		return u.abort(ctx, logger, run, err)
	}
	u.metrics.RecordOutputWrite("portfolio_fundamentals", "success")
	logger.Info(fmt.Sprintf("Saved portfolio data to %s", path), "path", path, "records", len(records))

	logger.Info("Updating market summary...")
	summary, err := u.summary.Build(ctx)
	if err != nil {
		return u.abort(ctx, logger, run, err)
	}

	path, err = u.writer.WriteMarketSummary(summary)
	if err != nil {
		u.metrics.RecordOutputWrite("market_summary", "failed")
		return u.abort(ctx, logger, run, err)
	}
	u.metrics.RecordOutputWrite("market_summary", "success")
	logger.Info(fmt.Sprintf("Saved market data to %s", path), "path", path, "indices", len(summary.Indices))

	meta := models.NewRunMetadata(u.now(), len(u.holdings), len(records))
	if _, err := u.writer.WriteRunMetadata(meta); err != nil {
		u.metrics.RecordOutputWrite("last_update", "failed")
		return u.abort(ctx, logger, run, err)
	}
	u.metrics.RecordOutputWrite("last_update", "success")

	run.Complete(len(records), len(summary.Indices))
	u.metrics.RecordRun(run.TotalHoldings, run.SuccessfulUpdates, time.Duration(run.DurationMs)*time.Millisecond)
	u.archiveComplete(ctx, logger, run, records)

	logger.Info("Portfolio update completed", "completed_at", run.CompletedAt)
	logger.Info(fmt.Sprintf("Updated %d out of %d holdings", meta.SuccessfulUpdates, meta.TotalHoldings),
		"successful_updates", meta.SuccessfulUpdates,
		"total_holdings", meta.TotalHoldings,
		"failed_symbols", run.FailedSymbols,
		"fallback_symbols", run.FallbackSymbols)

	return run, nil
}

func (u *Updater) abort(ctx context.Context, logger *slog.Logger, run *models.UpdateRun, err error) (*models.UpdateRun, error) {
	run.Fail(err)
	// the run context may be cancelled; the archive still gets the final status
	u.archiveComplete(context.WithoutCancel(ctx), logger, run, nil)
	logger.Error("Portfolio update failed", "error", err)
	return run, err
}

// Archive failures never affect the file outputs.
func (u *Updater) archiveCreate(ctx context.Context, logger *slog.Logger, run *models.UpdateRun) {
	if u.archive == nil {
		return
	}
	if err := u.archive.CreateUpdateRun(ctx, run); err != nil {
		logger.Warn("Failed to archive update run", "error", err)
	}
}

func (u *Updater) archiveComplete(ctx context.Context, logger *slog.Logger, run *models.UpdateRun, records map[string]models.Fundamentals) {
	if u.archive == nil {
		return
	}
	if err := u.archive.FinishUpdateRun(ctx, run, records); err != nil {
		logger.Warn("Failed to archive update run", "status", run.Status, "records", len(records), "error", err)
	}
}

// sleepContext pauses for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
