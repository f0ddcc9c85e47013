package cmd

import (
	"github.com/challenge-infra/submission-runner/cmd/backend"
)

var (
	fileSystemService = &backend.OS{}
	ledgerService     = &backend.Ledger{}
	runnerFactory     = &backend.Docker{FileSystem: fileSystemService, Ledger: ledgerService}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a runner_config.json file")

	// initialize top level commands
	rootCmd.AddCommand(NewRunCmd(runnerFactory, fileSystemService))
	rootCmd.AddCommand(NewRunsCmd(ledgerService, backend.SystemClock{}))
	rootCmd.AddCommand(versionCmd)
}
