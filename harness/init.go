package harness

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"github.com/challenge-infra/submission-runner/internal/logger"
)

var zlog *otelzap.Logger

func init() {
	zlog = logger.NewOtel("harness")
}
