package logger

import (
	"os"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/challenge-infra/submission-runner/internal/config"
)

var err error

// level is shared by every Logger so that Refresh can re-level loggers built in init().
var level = zap.NewAtomicLevelAt(zap.InfoLevel)

type Logger struct {
	*zap.Logger
}

func debugEnabled() bool {
	_, debug := os.LookupEnv("RUNNER_DEBUG")
	return debug || config.GetConfig().General.Debug
}

func (l *Logger) init() error {
	debug := debugEnabled()

	var zapConfig zap.Config
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	Refresh()
	zapConfig.Level = level
	l.Logger, err = zapConfig.Build()

	return err
}

// Refresh re-reads general.debug and RUNNER_DEBUG and applies the level to every Logger.
// Call it after loading a config file.
func Refresh() {
	if debugEnabled() {
		level.SetLevel(zap.DebugLevel)
	} else {
		level.SetLevel(zap.InfoLevel)
	}
}

// New takes in a package to initialize the new Logger in.
func New(pkg string) *Logger {
	Log := &Logger{}
	err = Log.init()
	if err != nil {
		panic(err)
	}

	Log.Logger = Log.Logger.With(
		zap.String("package", pkg),
	)

	return Log
}

// NewOtel wraps New(pkg) so that entries logged with a context are also attached to the
// active span.
func NewOtel(pkg string) *otelzap.Logger {
	return otelzap.New(New(pkg).Logger, otelzap.WithMinLevel(zap.InfoLevel))
}
