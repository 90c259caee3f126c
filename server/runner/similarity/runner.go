// Package similarity contains the batch maintenance runner for the
// cached pairwise similarity table: periodic refresh of stale rows and
// cleanup of rows past the retention age.
package similarity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wishfactory/wishfactory/internal/observability"
	similaritysvc "github.com/wishfactory/wishfactory/server/service/similarity"
)

// Report summarizes one maintenance pass for observability.
type Report struct {
	Refreshed int   `json:"refreshed"`
	Dropped   int   `json:"dropped"`
	Deleted   int64 `json:"deleted"`
	Errors    int   `json:"errors"`
}

type Runner struct {
	precompute *similaritysvc.PrecomputeService
	interval   time.Duration
	staleAge   time.Duration
}

// NewRunner creates a similarity maintenance runner.
func NewRunner(precompute *similaritysvc.PrecomputeService, interval, staleAge time.Duration) *Runner {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if staleAge <= 0 {
		staleAge = similaritysvc.DefaultStaleAge
	}
	return &Runner{
		precompute: precompute,
		interval:   interval,
		staleAge:   staleAge,
	}
}

// Run starts the background maintenance loop.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup
	r.runMaintenance(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runMaintenance(ctx)
		case <-ctx.Done():
			slog.Info("similarity maintenance runner stopped")
			return
		}
	}
}

// RunOnce executes one maintenance pass (for manual or external
// scheduler triggering) and returns its report.
func (r *Runner) RunOnce(ctx context.Context) *Report {
	return r.runMaintenance(ctx)
}

func (r *Runner) runMaintenance(ctx context.Context) *Report {
	runID := uuid.New().String()
	start := time.Now()
	report := &Report{}

	metrics := observability.GlobalMetrics()
	metrics.RecordRequest("maintenance")
	defer func() {
		metrics.RecordDuration("maintenance", time.Since(start))
		if report.Errors > 0 {
			metrics.RecordFailure("maintenance")
		}
	}()

	refresh, err := r.precompute.RefreshStale(ctx, r.staleAge)
	if err != nil {
		slog.Error("failed to refresh stale similarity scores", "run_id", runID, "error", err)
		report.Errors++
	} else {
		report.Refreshed = refresh.Refreshed
		report.Dropped = refresh.Dropped
		report.Errors += refresh.Errors
	}

	deleted, err := r.precompute.Cleanup(ctx)
	if err != nil {
		slog.Error("failed to clean up similarity scores", "run_id", runID, "error", err)
		report.Errors++
	} else {
		report.Deleted = deleted
	}

	if report.Refreshed > 0 || report.Deleted > 0 || report.Errors > 0 {
		slog.Info("similarity maintenance pass finished",
			"run_id", runID,
			"refreshed", report.Refreshed,
			"dropped", report.Dropped,
			"deleted", report.Deleted,
			"errors", report.Errors,
			"duration_ms", time.Since(start).Milliseconds())
	}

	return report
}
