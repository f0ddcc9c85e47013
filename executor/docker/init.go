package docker

import (
	"github.com/challenge-infra/submission-runner/internal/logger"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("docker.executor")
}
