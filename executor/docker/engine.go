package docker

import (
	"context"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// DestroyTimeout bounds how long a unit is given to stop before the engine kills it.
const DestroyTimeout = time.Second * 10

// Engine is the subset of the container engine the launcher, recorder and reaper rely on.
// *Client satisfies it against a local Docker daemon.
type Engine interface {
	// FindContainers lists containers named exactly name, including stopped ones when all is set.
	FindContainers(ctx context.Context, name string, all bool) ([]types.Container, error)

	// CreateContainer pulls the image if needed and creates a container, returning its ID.
	CreateContainer(
		ctx context.Context,
		config *container.Config,
		hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig,
		platform *v1.Platform,
		name string,
	) (string, error)

	StartContainer(ctx context.Context, containerID string) error

	// WaitContainer emits once the container is no longer running.
	WaitContainer(ctx context.Context, containerID string) (<-chan container.ContainerWaitOKBody, <-chan error)

	// IsRunning reports whether the container is among the running containers.
	IsRunning(ctx context.Context, containerID string) (bool, error)

	// Logs returns the full accumulated output of the container.
	Logs(ctx context.Context, containerID string) ([]byte, error)

	StopContainer(ctx context.Context, containerID string, timeout time.Duration) error
	RemoveContainer(ctx context.Context, containerID string) error
	RemoveImage(ctx context.Context, ref string) error
}

var _ Engine = (*Client)(nil)

// HasName reports whether the engine lists cont under exactly name.
func HasName(cont types.Container, name string) bool {
	for _, n := range cont.Names {
		if n == "/"+name || n == name {
			return true
		}
	}
	return false
}

// isTerminated reports whether an engine state means the unit will not run again on its own.
func isTerminated(state string) bool {
	return state == "exited" || state == "dead"
}
