package docker

import "github.com/pkg/errors"

var (
	// ErrUnknownTask is returned when no input directory is configured for a task selector.
	ErrUnknownTask = errors.New("unknown task")
	// ErrInvalidMounts is returned when a mount plan would break the sandbox layout.
	ErrInvalidMounts = errors.New("invalid mounts")
)
