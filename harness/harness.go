// Package harness runs one submission image against one task and classifies the outcome.
//
// A run moves through ABSENT, RUNNING, TERMINATED, LOG_FINALIZED, REAPED and CLASSIFIED. A unit
// that fails to launch skips RUNNING and TERMINATED. Whatever happens, the unit and its image are
// reaped exactly once and results.json is written.
package harness

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/challenge-infra/submission-runner/db/repositories"
	"github.com/challenge-infra/submission-runner/executor/docker"
	"github.com/challenge-infra/submission-runner/internal/tracing"
	"github.com/challenge-infra/submission-runner/models"
	"github.com/challenge-infra/submission-runner/storage"
)

const defaultCleanupTimeout = 2 * time.Minute

// Request identifies the submission to run.
type Request struct {
	SubmissionID string
	Repository   string
	Digest       string
	Task         string
	AdminFolder  string // owning folder for mirrored logs and results.json
	OutputDir    string // host directory bound to /output; receives the log and results.json
}

// Report describes a finished run.
type Report struct {
	RunID        string
	Unit         *models.ExecutionUnit // nil when launch failed
	LaunchError  string
	Log          docker.LogOutcome
	Result       models.ResultRecord
	ResultsPath  string
	CleanupError error
	Phases       []models.RunPhase
}

// Phase returns the last phase the run reached.
func (r *Report) Phase() models.RunPhase {
	if len(r.Phases) == 0 {
		return models.PhaseAbsent
	}
	return r.Phases[len(r.Phases)-1]
}

// Harness drives a run through its lifecycle.
type Harness struct {
	fs       afero.Fs
	launcher *docker.Launcher
	recorder *docker.Recorder
	reaper   *docker.Reaper
	runs     repositories.RunRepository // nil disables the ledger
	cfg      Config
}

// New wires a Harness. mirror and runs may be nil.
func New(
	engine docker.Engine,
	fs afero.Fs,
	mirror storage.LogMirror,
	runs repositories.RunRepository,
	cfg Config,
) *Harness {
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = defaultCleanupTimeout
	}
	return &Harness{
		fs:       fs,
		launcher: docker.NewLauncher(engine, cfg.MemoryLimit),
		recorder: docker.NewRecorder(engine, fs, mirror, cfg.Recorder),
		reaper:   docker.NewReaper(engine, cfg.Recorder.StopTimeout),
		runs:     runs,
		cfg:      cfg,
	}
}

// Run executes req to completion. Launch, observation and cleanup failures never abort a run;
// they end up in the Report and in the classification. An error is returned only when the request
// is unusable or results.json cannot be written.
func (h *Harness) Run(ctx context.Context, req Request) (*Report, error) {
	mounts, err := docker.PlanMounts(req.Task, req.OutputDir, h.cfg.InputDirs)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  uuid.NewString(),
		Phases: []models.RunPhase{models.PhaseAbsent},
	}
	name := models.UnitName(req.SubmissionID, req.Task)
	image := models.ImageReference(req.Repository, req.Digest)

	ctx, span := tracing.Tracer().Start(ctx, "run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("submission.id", req.SubmissionID),
		attribute.String("submission.task", req.Task),
		attribute.String("unit.name", name),
	))
	defer span.End()

	log := zlog.Ctx(ctx)
	log.Info("starting run",
		zap.String("run_id", report.RunID),
		zap.String("unit", name),
		zap.String("image", image),
	)
	checkHostMemory(ctx, h.cfg.MemoryLimit)

	run := h.openLedger(ctx, report.RunID, req, name, image)

	// launch
	launchCtx, launchSpan := tracing.Tracer().Start(ctx, "launch")
	unit, err := h.launcher.Launch(launchCtx, docker.LaunchRequest{Name: name, Image: image, Mounts: mounts})
	if err != nil {
		report.LaunchError = err.Error() + "\n"
		launchSpan.RecordError(err)
		launchSpan.SetStatus(codes.Error, "launch failed")
		log.Error("unable to launch container", zap.String("unit", name), zap.Error(err))
	} else {
		report.Unit = unit
		h.advance(ctx, report, models.PhaseRunning)
		launchSpan.SetAttributes(attribute.Bool("unit.reused", unit.Reused))
	}
	launchSpan.End()
	h.updateLedger(ctx, run, report)

	// record
	recordCtx, recordSpan := tracing.Tracer().Start(ctx, "record")
	outcome, err := h.recorder.Record(recordCtx, docker.RecordRequest{
		Unit:        unit,
		LaunchError: report.LaunchError,
		Dir:         req.OutputDir,
		FileName:    models.LogFileName(req.SubmissionID),
		Folder:      req.AdminFolder,
	})
	if err != nil {
		recordSpan.RecordError(err)
		log.Error("unable to write log file", zap.String("path", outcome.Path), zap.Error(err))
	}
	recordSpan.SetAttributes(
		attribute.Int64("log.bytes", outcome.Size),
		attribute.Bool("log.truncated", outcome.Truncated),
		attribute.Int("log.polls", outcome.Polls),
	)
	recordSpan.End()
	report.Log = outcome
	if unit != nil {
		h.advance(ctx, report, models.PhaseTerminated)
	}
	h.advance(ctx, report, models.PhaseLogFinalized)

	// reap
	report.CleanupError = h.reap(ctx, name, image)
	h.advance(ctx, report, models.PhaseReaped)

	// classify
	result, err := Classify(h.fs, req.OutputDir, req.AdminFolder, outcome.Stopped())
	if err != nil {
		log.Warn("unable to inspect output directory", zap.String("dir", req.OutputDir), zap.Error(err))
	}
	report.Result = result
	h.advance(ctx, report, models.PhaseClassified)
	span.SetAttributes(attribute.String("submission.status", string(result.Status)))

	report.ResultsPath, err = WriteResults(h.fs, req.OutputDir, result)
	h.closeLedger(ctx, run, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "results not written")
		return report, err
	}

	log.Info("run classified",
		zap.String("run_id", report.RunID),
		zap.String("status", string(result.Status)),
		zap.Bool("timed_out", outcome.TimedOut),
		zap.Bool("cancelled", outcome.Cancelled),
	)
	return report, nil
}

// reap removes the unit and its image once each on a fresh context so that cleanup still
// happens after the run context is cancelled.
func (h *Harness) reap(ctx context.Context, name, image string) error {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), h.cfg.CleanupTimeout)
	defer cancel()
	cleanupCtx = trace.ContextWithSpan(cleanupCtx, trace.SpanFromContext(ctx))

	cleanupCtx, span := tracing.Tracer().Start(cleanupCtx, "reap")
	defer span.End()

	var errs error
	if err := h.reaper.RemoveUnit(cleanupCtx, name); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := h.reaper.RemoveImage(cleanupCtx, image); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		span.RecordError(errs)
		zlog.Ctx(ctx).Error("cleanup incomplete", zap.String("unit", name), zap.Error(errs))
		return errors.Wrap(errs, "cleanup failed")
	}
	return nil
}

func (h *Harness) advance(ctx context.Context, report *Report, phase models.RunPhase) {
	report.Phases = append(report.Phases, phase)
	trace.SpanFromContext(ctx).AddEvent(string(phase))
	zlog.Ctx(ctx).Debug("phase reached", zap.String("run_id", report.RunID), zap.String("phase", string(phase)))
}
