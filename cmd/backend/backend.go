package backend

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/db/repositories"
	"github.com/challenge-infra/submission-runner/harness"
)

// Runner abstracts the harness so that commands can be exercised without a Docker daemon.
type Runner interface {
	Run(ctx context.Context, req harness.Request) (*harness.Report, error)
}

// RunnerOptions are the per-invocation choices taken from run flags.
type RunnerOptions struct {
	CredentialsPath string // INI file with [authentication], empty for anonymous pulls
	Store           bool   // mirror logs to object storage
}

// RunnerFactory builds a Runner and returns a release function for everything it opened.
type RunnerFactory interface {
	NewRunner(ctx context.Context, opts RunnerOptions) (Runner, func() error, error)
}

// LedgerOpener opens the run ledger for read access.
type LedgerOpener interface {
	OpenLedger() (repositories.RunRepository, func() error, error)
}

// FileSystem abstracts Afero/os calls
type FileSystem interface {
	Getwd() (string, error)
	Fs() afero.Fs
}

// Clock abstracts time for listings that print relative times.
type Clock interface {
	Now() time.Time
}
