package docker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challenge-infra/submission-runner/executor/docker"
	"github.com/challenge-infra/submission-runner/executor/docker/dockertest"
	"github.com/challenge-infra/submission-runner/models"
)

const (
	testImage    = "docker.synapse.org/syn123/model@sha256:abc"
	testUnitName = "9999_task1"
	sixGiB       = 6 * 1024 * 1024 * 1024
)

var _ docker.Engine = (*dockertest.Engine)(nil)

func launchRequest(t *testing.T) docker.LaunchRequest {
	mounts, err := docker.PlanMounts("1", "/work/9999", map[string]string{"1": "/data/task1_input"})
	require.NoError(t, err)
	return docker.LaunchRequest{Name: testUnitName, Image: testImage, Mounts: mounts}
}

func TestLaunchCreatesSandboxedUnit(t *testing.T) {
	engine := dockertest.NewEngine()
	launcher := docker.NewLauncher(engine, sixGiB)

	unit, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)
	require.NotNil(t, unit)

	assert.Equal(t, testUnitName, unit.Name)
	assert.False(t, unit.Reused)
	assert.Equal(t, models.UnitRunning, unit.State)
	assert.Equal(t, 1, engine.CallCount("CreateContainer"))

	cont, ok := engine.Get(unit.ContainerID)
	require.True(t, ok)
	assert.Equal(t, "running", cont.State)

	assert.True(t, engine.LastConfig.NetworkDisabled)
	assert.True(t, engine.LastConfig.AttachStderr)
	assert.Equal(t, testImage, engine.LastConfig.Image)
	assert.Equal(t, "none", string(engine.LastHostConfig.NetworkMode))
	assert.Equal(t, int64(sixGiB), engine.LastHostConfig.Memory)
	assert.Equal(t, []string{"/work/9999:/output:rw", "/data/task1_input:/input:ro"}, engine.LastHostConfig.Binds)
}

func TestLaunchReusesActiveUnit(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.Add(&dockertest.Container{ID: "existing", Name: testUnitName, Image: testImage, State: "running"})
	launcher := docker.NewLauncher(engine, sixGiB)

	first, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)
	second, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)

	assert.Equal(t, "existing", first.ContainerID)
	assert.Equal(t, first.ContainerID, second.ContainerID)
	assert.True(t, first.Reused)
	assert.Equal(t, 0, engine.CallCount("CreateContainer"))
	assert.Len(t, engine.Containers, 1)
}

func TestLaunchIsIdempotentAfterCreate(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.NewRunningPolls = dockertest.Forever
	launcher := docker.NewLauncher(engine, sixGiB)

	first, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)
	second, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)

	assert.Equal(t, first.ContainerID, second.ContainerID)
	assert.True(t, second.Reused)
	assert.Equal(t, 1, engine.CallCount("CreateContainer"))
}

func TestLaunchStartsCreatedUnit(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.Add(&dockertest.Container{ID: "pending", Name: testUnitName, State: "created"})
	launcher := docker.NewLauncher(engine, sixGiB)

	unit, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)
	assert.Equal(t, "pending", unit.ContainerID)

	cont, _ := engine.Get("pending")
	assert.Equal(t, "running", cont.State)
	assert.Equal(t, 0, engine.CallCount("CreateContainer"))
}

func TestLaunchReplacesTerminatedUnit(t *testing.T) {
	for _, state := range []string{"exited", "dead"} {
		t.Run(state, func(t *testing.T) {
			engine := dockertest.NewEngine()
			engine.Add(&dockertest.Container{ID: "old", Name: testUnitName, State: state})
			launcher := docker.NewLauncher(engine, sixGiB)

			unit, err := launcher.Launch(context.Background(), launchRequest(t))
			require.NoError(t, err)

			assert.NotEqual(t, "old", unit.ContainerID)
			assert.False(t, unit.Reused)
			assert.Equal(t, []string{"old"}, engine.RemovedContainers)
			assert.Equal(t, 1, engine.CallCount("CreateContainer"))
		})
	}
}

func TestLaunchIgnoresOtherNames(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.Add(&dockertest.Container{ID: "other", Name: "99999_task1", State: "running"})
	launcher := docker.NewLauncher(engine, sixGiB)

	unit, err := launcher.Launch(context.Background(), launchRequest(t))
	require.NoError(t, err)
	assert.NotEqual(t, "other", unit.ContainerID)
	assert.Equal(t, 1, engine.CallCount("CreateContainer"))
}

func TestLaunchFailure(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.CreateErr = errors.New("no such image")
	launcher := docker.NewLauncher(engine, sixGiB)

	unit, err := launcher.Launch(context.Background(), launchRequest(t))
	assert.Nil(t, unit)
	require.Error(t, err)
	assert.Equal(t, "no such image", err.Error())
}

func TestLaunchStartFailure(t *testing.T) {
	engine := dockertest.NewEngine()
	engine.StartErr = errors.New("cannot allocate memory")
	launcher := docker.NewLauncher(engine, sixGiB)

	unit, err := launcher.Launch(context.Background(), launchRequest(t))
	assert.Nil(t, unit)
	assert.EqualError(t, err, "cannot allocate memory")
	// the created container is left for the reaper
	assert.Len(t, engine.Containers, 1)
}

func TestLaunchRejectsBadMounts(t *testing.T) {
	engine := dockertest.NewEngine()
	launcher := docker.NewLauncher(engine, sixGiB)

	req := launchRequest(t)
	req.Mounts[1].HostPath = req.Mounts[0].HostPath

	_, err := launcher.Launch(context.Background(), req)
	assert.ErrorIs(t, err, docker.ErrInvalidMounts)
	assert.Equal(t, 0, engine.CallCount("FindContainers"))
}
