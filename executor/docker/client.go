package docker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
)

// Client wraps the Docker client to provide the container operations the harness needs.
// One Client is created per invocation and passed to every component.
type Client struct {
	client       *client.Client
	registryAuth string // base64 encoded types.AuthConfig, empty for anonymous pulls
}

// NewDockerClient initializes a new Docker client with environment variables and API version negotiation.
func NewDockerClient() (*Client, error) {
	c, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.client.Close()
}

// IsInstalled checks if Docker is installed and reachable by pinging the Docker daemon.
func (c *Client) IsInstalled(ctx context.Context) bool {
	_, err := c.client.Ping(ctx)
	return err == nil
}

// Login authenticates against a registry and keeps the credentials for later pulls.
func (c *Client) Login(ctx context.Context, server, username, password string) error {
	auth := types.AuthConfig{
		Username:      username,
		Password:      password,
		ServerAddress: server,
	}
	if _, err := c.client.RegistryLogin(ctx, auth); err != nil {
		return errors.Wrapf(err, "registry login to %s failed", server)
	}

	encoded, err := json.Marshal(auth)
	if err != nil {
		return errors.Wrap(err, "failed to encode registry auth")
	}
	c.registryAuth = base64.URLEncoding.EncodeToString(encoded)
	return nil
}

// FindContainers returns the containers named exactly name. Stopped ones are included when all is set.
func (c *Client) FindContainers(ctx context.Context, name string, all bool) ([]types.Container, error) {
	containers, err := c.client.ContainerList(ctx, types.ContainerListOptions{
		All:     all,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+regexp.QuoteMeta(name)+"$")),
	})
	if err != nil {
		return nil, err
	}

	// the engine filter is a regex match, keep only exact names
	matches := make([]types.Container, 0, len(containers))
	for _, cont := range containers {
		if HasName(cont, name) {
			matches = append(matches, cont)
		}
	}
	return matches, nil
}

// IsRunning reports whether the container is among the engine's running containers.
func (c *Client) IsRunning(ctx context.Context, containerID string) (bool, error) {
	containers, err := c.client.ContainerList(ctx, types.ContainerListOptions{
		Filters: filters.NewArgs(filters.Arg("id", containerID)),
	})
	if err != nil {
		return false, err
	}
	return len(containers) > 0, nil
}

// CreateContainer pulls the image and creates a new Docker container with the specified configuration.
func (c *Client) CreateContainer(
	ctx context.Context,
	config *container.Config,
	hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig,
	platform *v1.Platform,
	name string,
) (string, error) {
	_, err := c.PullImage(ctx, config.Image)
	if err != nil {
		return "", err
	}
	resp, err := c.client.ContainerCreate(
		ctx,
		config,
		hostConfig,
		networkingConfig,
		platform,
		name,
	)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// StartContainer starts a specified Docker container.
func (c *Client) StartContainer(ctx context.Context, containerID string) error {
	return c.client.ContainerStart(ctx, containerID, types.ContainerStartOptions{})
}

// WaitContainer waits for a container to stop, returning channels for the result and errors.
func (c *Client) WaitContainer(
	ctx context.Context,
	containerID string,
) (<-chan container.ContainerWaitOKBody, <-chan error) {
	return c.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
}

// Logs returns the full accumulated stdout and stderr of a container, interleaved as written.
func (c *Client) Logs(ctx context.Context, containerID string) ([]byte, error) {
	out, err := c.client.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get container logs")
	}
	defer out.Close()

	var combined bytes.Buffer
	if _, err := stdcopy.StdCopy(&combined, &combined, out); err != nil {
		return nil, errors.Wrap(err, "failed to demultiplex container logs")
	}
	return combined.Bytes(), nil
}

// StopContainer stops a running Docker container with a specified timeout.
func (c *Client) StopContainer(
	ctx context.Context,
	containerID string,
	timeout time.Duration,
) error {
	return c.client.ContainerStop(ctx, containerID, &timeout)
}

// RemoveContainer removes a Docker container, forcing removal and removing associated volumes.
func (c *Client) RemoveContainer(ctx context.Context, containerID string) error {
	return c.client.ContainerRemove(
		ctx,
		containerID,
		types.ContainerRemoveOptions{RemoveVolumes: true, Force: true},
	)
}

// RemoveImage force removes an image by reference.
func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	_, err := c.client.ImageRemove(ctx, ref, types.ImageRemoveOptions{Force: true, PruneChildren: true})
	return err
}

// PullImage pulls a Docker image from a registry.
func (c *Client) PullImage(ctx context.Context, imageName string) (string, error) {
	out, err := c.client.ImagePull(ctx, imageName, types.ImagePullOptions{RegistryAuth: c.registryAuth})
	if err != nil {
		zlog.Sugar().Errorf("unable to pull image: %v", err)
		return "", err
	}

	defer out.Close()
	d := json.NewDecoder(out)

	var digest string
	for {
		var message jsonmessage.JSONMessage
		if err := d.Decode(&message); err != nil {
			if err == io.EOF {
				break
			}
			zlog.Sugar().Errorf("unable pull image: %v", err)
			return "", err
		}
		if message.Aux != nil {
			continue
		}
		if message.Error != nil {
			zlog.Sugar().Errorf("unable pull image: %v", message.Error.Message)
			return "", errors.New(message.Error.Message)
		}
		if strings.HasPrefix(message.Status, "Digest") {
			digest = strings.TrimPrefix(message.Status, "Digest: ")
		}
	}

	return digest, nil
}

// IsNotFound reports whether err is the engine's "no such container/image" error.
func IsNotFound(err error) bool {
	return client.IsErrNotFound(errors.Cause(err))
}
