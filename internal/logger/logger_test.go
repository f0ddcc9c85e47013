package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/challenge-infra/submission-runner/internal/config"
)

func TestRefreshFollowsConfig(t *testing.T) {
	if _, ok := os.LookupEnv("RUNNER_DEBUG"); ok {
		t.Skip("RUNNER_DEBUG forces debug logging")
	}
	config.SetConfig("general.debug", false)
	t.Cleanup(func() {
		config.SetConfig("general.debug", false)
		Refresh()
	})

	log := New("test")
	assert.False(t, log.Core().Enabled(zap.DebugLevel))

	config.SetConfig("general.debug", true)
	Refresh()
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, NewOtel("test").Core().Enabled(zap.DebugLevel))

	config.SetConfig("general.debug", false)
	Refresh()
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}
