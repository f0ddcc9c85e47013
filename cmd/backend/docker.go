package backend

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/challenge-infra/submission-runner/db/repositories"
	"github.com/challenge-infra/submission-runner/executor/docker"
	"github.com/challenge-infra/submission-runner/harness"
	"github.com/challenge-infra/submission-runner/internal/config"
	"github.com/challenge-infra/submission-runner/internal/logger"
	"github.com/challenge-infra/submission-runner/internal/tracing"
	"github.com/challenge-infra/submission-runner/storage"
)

var zlog = logger.New("cmd.backend")

// Docker builds harnesses backed by the local Docker daemon.
type Docker struct {
	FileSystem FileSystem
	Ledger     LedgerOpener
}

func (d *Docker) NewRunner(ctx context.Context, opts RunnerOptions) (Runner, func() error, error) {
	cfg := config.GetConfig()
	harnessConfig, err := harness.ConfigFrom(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var closers []func() error
	release := func() error {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		return errs
	}

	shutdown, err := tracing.Init(ctx, tracing.Config{Endpoint: cfg.Tracing.Endpoint, Insecure: cfg.Tracing.Insecure})
	if err != nil {
		zlog.Sugar().Warnf("tracing disabled: %v", err)
	} else {
		closers = append(closers, func() error { return shutdown(context.Background()) })
	}

	client, err := docker.NewDockerClient()
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("unable to create docker client: %w", err)
	}
	closers = append(closers, client.Close)

	if !client.IsInstalled(ctx) {
		release()
		return nil, nil, fmt.Errorf("docker daemon is not reachable")
	}

	// a failed login surfaces later as a pull error in the participant's log
	if opts.CredentialsPath != "" {
		creds, err := config.LoadCredentials(opts.CredentialsPath)
		if err != nil {
			zlog.Sugar().Warnf("skipping registry login: %v", err)
		} else if err := client.Login(ctx, cfg.Registry.Address, creds.Username, creds.Password); err != nil {
			zlog.Sugar().Warnf("registry login failed: %v", err)
		}
	}

	fs := d.FileSystem.Fs()

	var mirror storage.LogMirror
	if opts.Store {
		mirror, err = NewMirror(cfg.Storage, fs)
		if err != nil {
			zlog.Sugar().Warnf("log mirroring disabled: %v", err)
			mirror = nil
		}
	}

	var runs repositories.RunRepository
	if d.Ledger != nil {
		repo, closeLedger, err := d.Ledger.OpenLedger()
		if err != nil {
			zlog.Sugar().Warnf("run ledger disabled: %v", err)
		} else {
			runs = repo
			closers = append(closers, closeLedger)
		}
	}

	return harness.New(client, fs, mirror, runs, harnessConfig), release, nil
}
