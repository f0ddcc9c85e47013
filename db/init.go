package db

import (
	"github.com/challenge-infra/submission-runner/internal/logger"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("db")
}
