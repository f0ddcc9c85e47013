package docker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Reaper removes execution units and their images. Every failure is returned to the caller;
// nothing is retried.
type Reaper struct {
	engine      Engine
	stopTimeout time.Duration
}

// NewReaper returns a Reaper giving running units stopTimeout to exit before they are killed.
func NewReaper(engine Engine, stopTimeout time.Duration) *Reaper {
	if stopTimeout <= 0 {
		stopTimeout = DestroyTimeout
	}
	return &Reaper{engine: engine, stopTimeout: stopTimeout}
}

// RemoveUnit stops and removes every container named name. A unit that no longer exists counts
// as removed.
func (r *Reaper) RemoveUnit(ctx context.Context, name string) error {
	containers, err := r.engine.FindContainers(ctx, name, true)
	if err != nil {
		return errors.Wrapf(err, "failed to look up container %s", name)
	}

	var errs error
	for _, cont := range containers {
		if !isTerminated(cont.State) {
			if err := r.engine.StopContainer(ctx, cont.ID, r.stopTimeout); err != nil && !IsNotFound(err) {
				errs = multierr.Append(errs, errors.Wrapf(err, "failed to stop container %s", name))
			}
		}
		if err := r.engine.RemoveContainer(ctx, cont.ID); err != nil && !IsNotFound(err) {
			errs = multierr.Append(errs, errors.Wrapf(err, "failed to remove container %s", name))
			continue
		}
		zlog.Sugar().Infof("removed container %s (%s)", name, cont.ID)
	}
	return errs
}

// RemoveImage force removes the image. An image that is already gone counts as removed.
func (r *Reaper) RemoveImage(ctx context.Context, ref string) error {
	if err := r.engine.RemoveImage(ctx, ref); err != nil && !IsNotFound(err) {
		return errors.Wrapf(err, "failed to remove image %s", ref)
	}
	zlog.Sugar().Infof("removed image %s", ref)
	return nil
}
