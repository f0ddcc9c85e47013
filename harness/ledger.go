package harness

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/challenge-infra/submission-runner/models"
)

// The ledger is informational. Every failure here is logged and ignored.

func (h *Harness) openLedger(ctx context.Context, runID string, req Request, name, image string) *models.Run {
	if h.runs == nil {
		return nil
	}

	run, err := h.runs.Create(ctx, models.Run{
		RunID:        runID,
		SubmissionID: req.SubmissionID,
		Task:         req.Task,
		UnitName:     name,
		Image:        image,
		Phase:        models.PhaseAbsent,
		StartedAt:    time.Now().UTC(),
	})
	if err != nil {
		zlog.Ctx(ctx).Warn("unable to record run in ledger", zap.String("run_id", runID), zap.Error(err))
		return nil
	}
	return &run
}

func (h *Harness) updateLedger(ctx context.Context, run *models.Run, report *Report) {
	if run == nil {
		return
	}

	run.Phase = report.Phase()
	run.LaunchError = report.LaunchError
	if report.Unit != nil {
		run.ContainerID = report.Unit.ContainerID
		run.Reused = report.Unit.Reused
	}

	if _, err := h.runs.Update(ctx, run.ID, *run); err != nil {
		zlog.Ctx(ctx).Warn("unable to update run in ledger", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

func (h *Harness) closeLedger(ctx context.Context, run *models.Run, report *Report) {
	if run == nil {
		return
	}

	run.Status = report.Result.Status
	run.LogBytes = report.Log.Size
	run.LogTruncated = report.Log.Truncated
	run.TimedOut = report.Log.TimedOut
	run.Cancelled = report.Log.Cancelled
	if report.CleanupError != nil {
		run.CleanupError = report.CleanupError.Error()
	}
	run.FinishedAt = time.Now().UTC()

	// the run context may already be cancelled
	h.updateLedger(trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx)), run, report)
}
