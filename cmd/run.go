package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/challenge-infra/submission-runner/cmd/backend"
	"github.com/challenge-infra/submission-runner/harness"
	"github.com/challenge-infra/submission-runner/internal/config"
)

// taskInputs returns the configured task selectors; the harness mounts from the same map.
var taskInputs = func() map[string]string {
	return config.GetConfig().Tasks.InputDirs
}

func validateTask(task string) error {
	inputs := taskInputs()
	if _, ok := inputs[task]; ok {
		return nil
	}

	tasks := make([]string, 0, len(inputs))
	for t := range inputs {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	return fmt.Errorf("invalid task number %q: must be one of %s", task, strings.Join(tasks, ", "))
}

func NewRunCmd(factory backend.RunnerFactory, fs backend.FileSystem) *cobra.Command {
	var (
		req             harness.Request
		credentialsPath string
		store           bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a submission image against a task",
		Long: `Launches the submission image with the task input mounted read-only on /input and the
current directory mounted read-write on /output, records its log, removes the container and
its image, then writes results.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateTask(req.Task); err != nil {
				return err
			}

			if req.OutputDir == "" {
				wd, err := fs.Getwd()
				if err != nil {
					return fmt.Errorf("cannot determine working directory: %w", err)
				}
				req.OutputDir = wd
			}

			runner, release, err := factory.NewRunner(cmd.Context(), backend.RunnerOptions{
				CredentialsPath: credentialsPath,
				Store:           store,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := release(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}()

			report, err := runner.Run(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", report.Result.Status, report.ResultsPath)
			if report.CleanupError != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", report.CleanupError)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.SubmissionID, "submissionid", "s", "", "submission id")
	cmd.Flags().StringVarP(&req.Repository, "docker_repository", "p", "", "docker repository")
	cmd.Flags().StringVarP(&req.Digest, "docker_digest", "d", "", "docker digest")
	cmd.Flags().StringVarP(&req.Task, "task_number", "t", "", "task number (1 or 2)")
	cmd.Flags().StringVarP(&credentialsPath, "synapse_config", "c", "", "credentials file with an [authentication] section")
	cmd.Flags().StringVar(&req.AdminFolder, "parentid", "", "folder owning the mirrored log and results")
	cmd.Flags().BoolVar(&store, "store", false, "mirror the log to object storage")
	cmd.Flags().StringVar(&req.OutputDir, "output_dir", "", "directory mounted on /output (defaults to the working directory)")

	cmd.MarkFlagRequired("submissionid")
	cmd.MarkFlagRequired("docker_repository")
	cmd.MarkFlagRequired("docker_digest")
	cmd.MarkFlagRequired("task_number")
	cmd.MarkFlagRequired("synapse_config")
	cmd.MarkFlagRequired("parentid")

	return cmd
}
