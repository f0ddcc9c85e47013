package docker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challenge-infra/submission-runner/executor/docker"
	"github.com/challenge-infra/submission-runner/executor/docker/dockertest"
	"github.com/challenge-infra/submission-runner/models"
)

// mockMirror records every Store call together with the file content at that moment.
type mockMirror struct {
	mu       sync.Mutex
	fs       afero.Fs
	err      error
	folders  []string
	contents []string
}

func (m *mockMirror) Store(_ context.Context, localPath string, folder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := afero.ReadFile(m.fs, localPath)
	m.folders = append(m.folders, folder)
	m.contents = append(m.contents, string(data))
	return m.err
}

func (m *mockMirror) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contents)
}

func testRecorderConfig() docker.RecorderConfig {
	return docker.RecorderConfig{
		PollInterval: time.Millisecond,
		StopTimeout:  time.Second,
		MaxSize:      50000,
		TailLines:    5,
	}
}

func runningUnit(engine *dockertest.Engine, logs string, polls int) *models.ExecutionUnit {
	engine.Add(&dockertest.Container{
		ID:           "c1",
		Name:         testUnitName,
		State:        "running",
		Logs:         []byte(logs),
		RunningPolls: polls,
	})
	return &models.ExecutionUnit{Name: testUnitName, ContainerID: "c1", State: models.UnitRunning}
}

func recordRequest(unit *models.ExecutionUnit, launchErr string) docker.RecordRequest {
	return docker.RecordRequest{
		Unit:        unit,
		LaunchError: launchErr,
		Dir:         "/work",
		FileName:    models.LogFileName("9999"),
		Folder:      "syn42",
	}
}

func TestRecordCapturesFullOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	mirror := &mockMirror{fs: fs}
	unit := runningUnit(engine, "epoch 1\nepoch 2\n", 2)

	recorder := docker.NewRecorder(engine, fs, mirror, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	assert.Equal(t, "/work/9999_log.txt", outcome.Path)
	assert.Equal(t, 2, outcome.Polls)
	assert.False(t, outcome.Stopped())
	assert.Equal(t, int64(len("epoch 1\nepoch 2\n")), outcome.Size)

	data, err := afero.ReadFile(fs, outcome.Path)
	require.NoError(t, err)
	assert.Equal(t, "epoch 1\nepoch 2\n", string(data))

	// two polls plus the final pass, each a full overwrite rather than an append
	assert.Equal(t, 3, mirror.calls())
	for i, content := range mirror.contents {
		assert.Equal(t, "epoch 1\nepoch 2\n", content)
		assert.Equal(t, "syn42", mirror.folders[i])
	}
}

func TestRecordFinalPassAfterExit(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	unit := runningUnit(engine, "done\n", 0)

	recorder := docker.NewRecorder(engine, fs, nil, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Polls)
	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "done\n", string(data))
}

func TestRecordTruncatesLargeOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()

	var logs []byte
	for i := 0; i < 6000; i++ {
		logs = append(logs, []byte("012345678\n")...)
	}
	logs = append(logs, []byte("a\nb\nc\nd\ne\n")...)
	unit := runningUnit(engine, string(logs), 1)

	recorder := docker.NewRecorder(engine, fs, nil, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	assert.True(t, outcome.Truncated)
	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "a\nb\nc\nd\ne\n", string(data))
}

func TestRecordStripsNonASCII(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	unit := runningUnit(engine, "loss ≈ 0.1\n", 0)

	recorder := docker.NewRecorder(engine, fs, nil, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "loss  0.1\n", string(data))
}

func TestRecordLaunchErrorBecomesLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	mirror := &mockMirror{fs: fs}

	recorder := docker.NewRecorder(engine, fs, mirror, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(nil, "no such image\n"))
	require.NoError(t, err)

	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "no such image\n", string(data))
	assert.Equal(t, int64(14), outcome.Size)
	assert.Equal(t, []string{"no such image\n"}, mirror.contents)
	assert.Equal(t, 0, engine.CallCount("Logs"))
}

func TestRecordEmptyLogIsNotMirrored(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	mirror := &mockMirror{fs: fs}
	unit := runningUnit(engine, "", 1)

	recorder := docker.NewRecorder(engine, fs, mirror, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	exists, _ := afero.Exists(fs, outcome.Path)
	assert.True(t, exists)
	assert.Equal(t, int64(0), outcome.Size)
	assert.Equal(t, 0, mirror.calls())
}

func TestRecordObservationFailuresAreNotFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	engine.LogsErr = errors.New("daemon busy")
	mirror := &mockMirror{fs: fs}
	unit := runningUnit(engine, "ignored\n", 2)

	recorder := docker.NewRecorder(engine, fs, mirror, testRecorderConfig())
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Polls)
	assert.Equal(t, int64(0), outcome.Size)
	assert.Equal(t, 3, engine.CallCount("Logs"))
}

func TestRecordMirrorFailureIsNotFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	mirror := &mockMirror{fs: fs, err: errors.New("403 forbidden")}
	unit := runningUnit(engine, "still here\n", 1)

	recorder := docker.NewRecorder(engine, fs, mirror, testRecorderConfig())
	_, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, mirror.calls())
}

func TestRecordDeadlineStopsUnit(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	unit := runningUnit(engine, "stuck\n", dockertest.Forever)

	cfg := testRecorderConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.Timeout = 30 * time.Millisecond

	recorder := docker.NewRecorder(engine, fs, nil, cfg)
	outcome, err := recorder.Record(context.Background(), recordRequest(unit, ""))
	require.NoError(t, err)

	assert.True(t, outcome.TimedOut)
	assert.True(t, outcome.Stopped())
	assert.Equal(t, []string{"c1"}, engine.Stopped)

	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "stuck\n", string(data))
}

func TestRecordCancellationStopsUnit(t *testing.T) {
	fs := afero.NewMemMapFs()
	engine := dockertest.NewEngine()
	unit := runningUnit(engine, "waiting\n", dockertest.Forever)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	cfg := testRecorderConfig()
	cfg.PollInterval = time.Hour

	recorder := docker.NewRecorder(engine, fs, nil, cfg)
	outcome, err := recorder.Record(ctx, recordRequest(unit, ""))
	require.NoError(t, err)

	assert.True(t, outcome.Cancelled)
	assert.False(t, outcome.TimedOut)
	assert.Equal(t, []string{"c1"}, engine.Stopped)

	// the final pass runs on a fresh context
	data, _ := afero.ReadFile(fs, outcome.Path)
	assert.Equal(t, "waiting\n", string(data))
}
