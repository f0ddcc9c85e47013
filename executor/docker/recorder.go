package docker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/models"
	"github.com/challenge-infra/submission-runner/storage"
)

// flushTimeout bounds the final fetch after the run context is already done.
const flushTimeout = time.Minute

// RecorderConfig holds the polling and log ceiling settings of a Recorder.
type RecorderConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration // 0 means no deadline
	StopTimeout  time.Duration
	MaxSize      int
	TailLines    int
}

// RecordRequest names the unit to observe and where its log goes.
type RecordRequest struct {
	Unit        *models.ExecutionUnit // nil when launch failed
	LaunchError string                // written as the log when the unit never ran
	Dir         string
	FileName    string
	Folder      string // owning folder used as the mirror destination
}

// LogOutcome summarises what the recorder observed.
type LogOutcome struct {
	Path      string
	Size      int64
	Polls     int
	Truncated bool
	TimedOut  bool
	Cancelled bool
}

// Stopped reports whether the unit was killed by the harness rather than exiting on its own.
func (o LogOutcome) Stopped() bool {
	return o.TimedOut || o.Cancelled
}

// Recorder polls a running unit, keeps its latest output on disk and mirrors it.
type Recorder struct {
	engine Engine
	fs     afero.Fs
	mirror storage.LogMirror // nil disables mirroring
	cfg    RecorderConfig
}

// NewRecorder returns a Recorder. A nil mirror keeps logs local only.
func NewRecorder(engine Engine, fs afero.Fs, mirror storage.LogMirror, cfg RecorderConfig) *Recorder {
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DestroyTimeout
	}
	return &Recorder{engine: engine, fs: fs, mirror: mirror, cfg: cfg}
}

// Record blocks until the unit stops running, the deadline passes or ctx is cancelled, then
// performs a final fetch. Each fetch overwrites the local file with the full accumulated output.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (LogOutcome, error) {
	outcome := LogOutcome{Path: filepath.Join(req.Dir, req.FileName)}

	if err := afero.WriteFile(r.fs, outcome.Path, nil, 0644); err != nil {
		return outcome, err
	}

	if req.Unit != nil {
		r.poll(ctx, req, &outcome)

		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		r.persist(flushCtx, req, &outcome)
		cancel()
	}

	info, err := r.fs.Stat(outcome.Path)
	if err != nil {
		return outcome, err
	}
	outcome.Size = info.Size()

	if outcome.Size == 0 && req.Unit == nil && req.LaunchError != "" {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := r.write(flushCtx, req, []byte(req.LaunchError), &outcome); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

func (r *Recorder) poll(ctx context.Context, req RecordRequest, outcome *LogOutcome) {
	id := req.Unit.ContainerID

	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()
	exitCh, waitErrCh := r.engine.WaitContainer(waitCtx, id)

	var deadline <-chan time.Time
	if r.cfg.Timeout > 0 {
		timer := time.NewTimer(r.cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		running, err := r.engine.IsRunning(ctx, id)
		if err != nil {
			zlog.Sugar().Warnf("unable to query state of %s: %v", req.Unit.Name, err)
		} else if !running {
			return
		} else {
			outcome.Polls++
			r.persist(ctx, req, outcome)
		}

		select {
		case <-ticker.C:
		case <-exitCh:
			exitCh = nil
		case err := <-waitErrCh:
			if err != nil && ctx.Err() == nil {
				zlog.Sugar().Warnf("wait on %s failed, falling back to polling: %v", req.Unit.Name, err)
			}
			waitErrCh = nil
		case <-deadline:
			zlog.Sugar().Warnf("container %s exceeded the %s time limit, stopping it", req.Unit.Name, r.cfg.Timeout)
			outcome.TimedOut = true
			r.stop(id)
			return
		case <-ctx.Done():
			zlog.Sugar().Warnf("run cancelled, stopping container %s", req.Unit.Name)
			outcome.Cancelled = true
			r.stop(id)
			return
		}
	}
}

func (r *Recorder) stop(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.StopTimeout+flushTimeout)
	defer cancel()
	if err := r.engine.StopContainer(ctx, containerID, r.cfg.StopTimeout); err != nil && !IsNotFound(err) {
		zlog.Sugar().Errorf("failed to stop container %s: %v", containerID, err)
	}
}

// persist fetches the unit's output and writes it. Failures are logged and never escalate.
func (r *Recorder) persist(ctx context.Context, req RecordRequest, outcome *LogOutcome) {
	logs, err := r.engine.Logs(ctx, req.Unit.ContainerID)
	if err != nil {
		zlog.Sugar().Warnf("unable to fetch logs of %s: %v", req.Unit.Name, err)
		return
	}
	if err := r.write(ctx, req, logs, outcome); err != nil {
		zlog.Sugar().Warnf("unable to write log file %s: %v", outcome.Path, err)
	}
}

// write replaces the local log with data, applies the ceiling and mirrors non-empty files.
func (r *Recorder) write(ctx context.Context, req RecordRequest, data []byte, outcome *LogOutcome) error {
	content, truncated := TruncateLog(SanitizeLog(data), r.cfg.MaxSize, r.cfg.TailLines)
	if truncated {
		outcome.Truncated = true
	}

	if err := afero.WriteFile(r.fs, outcome.Path, content, 0644); err != nil {
		return err
	}
	outcome.Size = int64(len(content))

	if r.mirror != nil && len(content) > 0 {
		if err := r.mirror.Store(ctx, outcome.Path, req.Folder); err != nil {
			zlog.Sugar().Warnf("unable to mirror log file %s: %v", outcome.Path, err)
		}
	}
	return nil
}
