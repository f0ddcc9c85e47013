package harness

import (
	"time"

	"github.com/challenge-infra/submission-runner/executor/docker"
	"github.com/challenge-infra/submission-runner/internal/config"
)

// Config carries the settings a Harness needs, resolved from the runner configuration.
type Config struct {
	Recorder       docker.RecorderConfig
	MemoryLimit    int64
	InputDirs      map[string]string
	CleanupTimeout time.Duration
}

// ConfigFrom validates cfg and extracts the harness settings from it.
func ConfigFrom(cfg *config.Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	memoryLimit, err := cfg.MemoryLimitBytes()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Recorder: docker.RecorderConfig{
			PollInterval: cfg.Run.PollInterval,
			Timeout:      cfg.Run.Timeout,
			StopTimeout:  cfg.Run.StopTimeout,
			MaxSize:      cfg.Log.MaxSize,
			TailLines:    cfg.Log.TailLines,
		},
		MemoryLimit:    memoryLimit,
		InputDirs:      cfg.Tasks.InputDirs,
		CleanupTimeout: cfg.Run.CleanupTimeout,
	}, nil
}
