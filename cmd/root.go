package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/challenge-infra/submission-runner/internal/config"
	"github.com/challenge-infra/submission-runner/internal/logger"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:     "runner",
	Short:   "Challenge submission runner",
	Long:    `Runs a participant's Docker image against a challenge task and classifies the outcome.`,
	Version: Version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: false,
		HiddenDefaultCmd:  true,
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfig == "" {
			return nil
		}
		if err := config.LoadConfigFile(flagConfig); err != nil {
			return err
		}
		// loggers were built before the file was read
		logger.Refresh()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	// SIGINT and SIGTERM cancel the run; the unit is stopped and reaped before exit
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CheckErr prints formatted error message, if there is any, and exits
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}
