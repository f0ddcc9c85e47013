// Package dockertest provides an in-memory container engine for exercising the launcher,
// recorder and reaper without a Docker daemon.
package dockertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// Forever makes a container report running until it is stopped.
const Forever = -1

// Container is a fake container. RunningPolls counts how many more IsRunning calls report
// true before the container exits on its own.
type Container struct {
	ID           string
	Name         string
	Image        string
	State        string
	Logs         []byte
	RunningPolls int
}

// Engine is a fake engine. Zero values behave like a healthy daemon with no containers.
type Engine struct {
	mu sync.Mutex

	Containers map[string]*Container

	// Behaviour of containers created through CreateContainer.
	NewLogs         []byte
	NewRunningPolls int

	CreateErr      error
	PartialCreate  bool // leave a "created" container behind when CreateErr is returned
	StartErr       error
	FindErr        error
	IsRunningErr   error
	LogsErr        error
	StopErr        error
	RemoveErr      error
	RemoveImageErr error

	// OnStart runs after a container is started, e.g. to drop files into the output dir.
	OnStart func(c *Container)

	LastConfig     *container.Config
	LastHostConfig *container.HostConfig

	Calls             map[string]int
	Stopped           []string
	RemovedContainers []string
	RemovedImages     []string

	nextID int
}

// NewEngine returns an empty fake engine.
func NewEngine() *Engine {
	return &Engine{
		Containers: map[string]*Container{},
		Calls:      map[string]int{},
	}
}

// Add registers an existing container, e.g. one left behind by an earlier invocation.
func (e *Engine) Add(c *Container) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Containers[c.ID] = c
}

// Get returns a container by ID.
func (e *Engine) Get(id string) (*Container, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.Containers[id]
	return c, ok
}

// CallCount returns how many times method was invoked.
func (e *Engine) CallCount(method string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Calls[method]
}

func (e *Engine) called(method string) {
	if e.Calls == nil {
		e.Calls = map[string]int{}
	}
	e.Calls[method]++
}

func (e *Engine) FindContainers(_ context.Context, name string, all bool) ([]types.Container, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("FindContainers")
	if e.FindErr != nil {
		return nil, e.FindErr
	}

	var found []types.Container
	for _, c := range e.Containers {
		if c.Name != name {
			continue
		}
		if !all && c.State != "running" {
			continue
		}
		found = append(found, types.Container{
			ID:    c.ID,
			Names: []string{"/" + c.Name},
			Image: c.Image,
			State: c.State,
		})
	}
	return found, nil
}

func (e *Engine) CreateContainer(
	_ context.Context,
	config *container.Config,
	hostConfig *container.HostConfig,
	_ *network.NetworkingConfig,
	_ *v1.Platform,
	name string,
) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("CreateContainer")
	e.LastConfig = config
	e.LastHostConfig = hostConfig

	if e.CreateErr != nil && !e.PartialCreate {
		return "", e.CreateErr
	}

	e.nextID++
	c := &Container{
		ID:           fmt.Sprintf("c%04d", e.nextID),
		Name:         name,
		Image:        config.Image,
		State:        "created",
		Logs:         e.NewLogs,
		RunningPolls: e.NewRunningPolls,
	}
	if e.Containers == nil {
		e.Containers = map[string]*Container{}
	}
	e.Containers[c.ID] = c

	if e.CreateErr != nil {
		return "", e.CreateErr
	}
	return c.ID, nil
}

func (e *Engine) StartContainer(_ context.Context, containerID string) error {
	e.mu.Lock()
	e.called("StartContainer")
	if e.StartErr != nil {
		e.mu.Unlock()
		return e.StartErr
	}
	c, ok := e.Containers[containerID]
	if !ok {
		e.mu.Unlock()
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	c.State = "running"
	hook := e.OnStart
	e.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return nil
}

// WaitContainer never fires; the fake relies on polling to observe exits.
func (e *Engine) WaitContainer(ctx context.Context, _ string) (<-chan container.ContainerWaitOKBody, <-chan error) {
	e.mu.Lock()
	e.called("WaitContainer")
	e.mu.Unlock()

	statusCh := make(chan container.ContainerWaitOKBody)
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		errCh <- ctx.Err()
	}()
	return statusCh, errCh
}

func (e *Engine) IsRunning(_ context.Context, containerID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("IsRunning")
	if e.IsRunningErr != nil {
		return false, e.IsRunningErr
	}

	c, ok := e.Containers[containerID]
	if !ok || c.State != "running" {
		return false, nil
	}
	if c.RunningPolls == Forever {
		return true, nil
	}
	if c.RunningPolls == 0 {
		c.State = "exited"
		return false, nil
	}
	c.RunningPolls--
	return true, nil
}

func (e *Engine) Logs(_ context.Context, containerID string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("Logs")
	if e.LogsErr != nil {
		return nil, e.LogsErr
	}
	c, ok := e.Containers[containerID]
	if !ok {
		return nil, errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	return append([]byte(nil), c.Logs...), nil
}

func (e *Engine) StopContainer(_ context.Context, containerID string, _ time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("StopContainer")
	if e.StopErr != nil {
		return e.StopErr
	}
	c, ok := e.Containers[containerID]
	if !ok {
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	c.State = "exited"
	e.Stopped = append(e.Stopped, containerID)
	return nil
}

func (e *Engine) RemoveContainer(_ context.Context, containerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("RemoveContainer")
	if e.RemoveErr != nil {
		return e.RemoveErr
	}
	if _, ok := e.Containers[containerID]; !ok {
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	delete(e.Containers, containerID)
	e.RemovedContainers = append(e.RemovedContainers, containerID)
	return nil
}

func (e *Engine) RemoveImage(_ context.Context, ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.called("RemoveImage")
	if e.RemoveImageErr != nil {
		return e.RemoveImageErr
	}
	e.RemovedImages = append(e.RemovedImages, ref)
	return nil
}
