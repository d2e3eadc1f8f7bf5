package models

import (
	"time"

	"github.com/google/uuid"
)

// RunMetadata is the record written to last_update.json
type RunMetadata struct {
	LastUpdate        string `json:"last_update"`
	MarketCloseDate   string `json:"market_close_date"`
	TotalHoldings     int    `json:"total_holdings"`
	SuccessfulUpdates int    `json:"successful_updates"`
}

// NewRunMetadata builds the metadata record for a run finishing at now
func NewRunMetadata(now time.Time, totalHoldings, successfulUpdates int) RunMetadata {
	return RunMetadata{
		LastUpdate:        now.Format(TimestampLayout),
		MarketCloseDate:   now.Format(DateLayout),
		TotalHoldings:     totalHoldings,
		SuccessfulUpdates: successfulUpdates,
	}
}

// UpdateRunStatus represents the status of an update run
type UpdateRunStatus string

const (
	UpdateRunStatusRunning   UpdateRunStatus = "running"
	UpdateRunStatusCompleted UpdateRunStatus = "completed"
	UpdateRunStatusFailed    UpdateRunStatus = "failed"
)

// UpdateRun tracks a single execution of the updater
type UpdateRun struct {
	ID                uuid.UUID       `json:"id"`
	Status            UpdateRunStatus `json:"status"`
	TotalHoldings     int             `json:"total_holdings"`
	SuccessfulUpdates int             `json:"successful_updates"`
	FailedSymbols     []string        `json:"failed_symbols"`
	FallbackSymbols   []string        `json:"fallback_symbols"`
	IndicesFetched    int             `json:"indices_fetched"`
	Error             string          `json:"error,omitempty"`
	DurationMs        int64           `json:"duration_ms"`
	StartedAt         time.Time       `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
}

// NewUpdateRun creates a running UpdateRun for the given number of holdings
func NewUpdateRun(totalHoldings int) *UpdateRun {
	return &UpdateRun{
		ID:              uuid.New(),
		Status:          UpdateRunStatusRunning,
		TotalHoldings:   totalHoldings,
		FailedSymbols:   []string{},
		FallbackSymbols: []string{},
		StartedAt:       time.Now(),
	}
}

// Complete marks the run as completed
func (r *UpdateRun) Complete(successful, indices int) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = UpdateRunStatusCompleted
	r.SuccessfulUpdates = successful
	r.IndicesFetched = indices
	r.DurationMs = now.Sub(r.StartedAt).Milliseconds()
}

// Fail marks the run as failed
func (r *UpdateRun) Fail(err error) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = UpdateRunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.DurationMs = now.Sub(r.StartedAt).Milliseconds()
}
