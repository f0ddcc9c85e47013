package docker

import (
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/pkg/errors"

	"github.com/challenge-infra/submission-runner/models"
)

const labelUnit = "submission-runner.unit"

// LaunchRequest describes the unit to find or create.
type LaunchRequest struct {
	Name   string
	Image  string
	Mounts []models.MountSpec
}

// Launcher finds or creates the execution unit for a submission, keeping at most one
// non-terminated unit per name.
type Launcher struct {
	engine      Engine
	memoryLimit int64
}

// NewLauncher returns a Launcher creating units capped at memoryLimit bytes.
func NewLauncher(engine Engine, memoryLimit int64) *Launcher {
	return &Launcher{engine: engine, memoryLimit: memoryLimit}
}

// Launch reconnects to an active unit named req.Name or creates a fresh one.
// Terminated units holding the name are removed first. On failure the returned unit is nil and
// the engine error is returned as is so that its text can be reported to the participant.
func (l *Launcher) Launch(ctx context.Context, req LaunchRequest) (*models.ExecutionUnit, error) {
	if err := ValidateMounts(req.Mounts); err != nil {
		return nil, err
	}

	existing, err := l.engine.FindContainers(ctx, req.Name, true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list containers named %s", req.Name)
	}

	var unit *models.ExecutionUnit
	for _, cont := range existing {
		if isTerminated(cont.State) {
			zlog.Sugar().Infof("removing terminated container %s (%s)", req.Name, cont.State)
			if err := l.engine.RemoveContainer(ctx, cont.ID); err != nil && !IsNotFound(err) {
				return nil, errors.Wrapf(err, "failed to reclaim name %s", req.Name)
			}
			continue
		}
		if unit != nil {
			zlog.Sugar().Warnf("more than one active container named %s, keeping %s", req.Name, unit.ContainerID)
			continue
		}

		unit = &models.ExecutionUnit{
			Name:        req.Name,
			ContainerID: cont.ID,
			Image:       req.Image,
			State:       models.UnitRunning,
			Reused:      true,
		}
		if cont.State == string(models.UnitCreated) {
			if err := l.engine.StartContainer(ctx, cont.ID); err != nil {
				return nil, err
			}
		}
		zlog.Sugar().Infof("reconnected to container %s (%s)", req.Name, cont.ID)
	}
	if unit != nil {
		return unit, nil
	}

	return l.create(ctx, req)
}

func (l *Launcher) create(ctx context.Context, req LaunchRequest) (*models.ExecutionUnit, error) {
	config := &container.Config{
		Image:           req.Image,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: true,
		Labels:          map[string]string{labelUnit: req.Name},
	}
	hostConfig := &container.HostConfig{
		Binds:       Binds(req.Mounts),
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:     l.memoryLimit,
			MemorySwap: l.memoryLimit, // no swap on top of the ceiling
		},
	}

	zlog.Sugar().Infof("creating container %s from %s", req.Name, req.Image)
	id, err := l.engine.CreateContainer(ctx, config, hostConfig, &network.NetworkingConfig{}, nil, req.Name)
	if err != nil {
		return nil, err
	}

	if err := l.engine.StartContainer(ctx, id); err != nil {
		return nil, err
	}

	return &models.ExecutionUnit{
		Name:        req.Name,
		ContainerID: id,
		Image:       req.Image,
		State:       models.UnitRunning,
	}, nil
}
