package docker

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/challenge-infra/submission-runner/models"
)

// PlanMounts returns the two bindings every run gets: the working directory read-write on
// /output and the task's input directory read-only on /input.
func PlanMounts(task string, cwd string, inputDirs map[string]string) ([]models.MountSpec, error) {
	inputDir, ok := inputDirs[task]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTask, "task %q", task)
	}

	return []models.MountSpec{
		{HostPath: cwd, ContainerPath: models.OutputMountPath, Mode: models.ReadWrite},
		{HostPath: inputDir, ContainerPath: models.InputMountPath, Mode: models.ReadOnly},
	}, nil
}

// ValidateMounts checks that exactly one read-only and one read-write binding are present and
// that the read-only one does not expose the output directory.
func ValidateMounts(mounts []models.MountSpec) error {
	var ro, rw []models.MountSpec
	for _, m := range mounts {
		switch m.Mode {
		case models.ReadOnly:
			ro = append(ro, m)
		case models.ReadWrite:
			rw = append(rw, m)
		default:
			return errors.Wrapf(ErrInvalidMounts, "mount %s has unknown access mode %q", m.HostPath, m.Mode)
		}
	}

	if len(ro) != 1 || len(rw) != 1 {
		return errors.Wrapf(ErrInvalidMounts, "expected one read-only and one read-write mount, got %d and %d", len(ro), len(rw))
	}
	if filepath.Clean(ro[0].HostPath) == filepath.Clean(rw[0].HostPath) {
		return errors.Wrapf(ErrInvalidMounts, "input directory %s must not be the output directory", ro[0].HostPath)
	}
	return nil
}

// Binds renders mounts as engine bind strings.
func Binds(mounts []models.MountSpec) []string {
	binds := make([]string, 0, len(mounts))
	for _, m := range mounts {
		binds = append(binds, m.Bind())
	}
	return binds
}
