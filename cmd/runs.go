package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/challenge-infra/submission-runner/cmd/backend"
	"github.com/challenge-infra/submission-runner/models"
)

func NewRunsCmd(ledger backend.LedgerOpener, clock backend.Clock) *cobra.Command {
	var (
		submissionID string
		since        time.Duration
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long:  `Lists runs recorded in the local run ledger, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, release, err := ledger.OpenLedger()
			if err != nil {
				return fmt.Errorf("cannot open run ledger: %w", err)
			}
			defer release()

			var after time.Time
			if since > 0 {
				after = clock.Now().Add(-since)
			}

			list, err := runs.ListRecent(cmd.Context(), submissionID, after, limit)
			if err != nil {
				return fmt.Errorf("cannot list runs: %w", err)
			}

			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			table := setupRunsTable(cmd.OutOrStdout())
			for _, run := range list {
				table.Append(runRow(run, clock.Now()))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&submissionID, "submissionid", "s", "", "only runs of this submission")
	cmd.Flags().DurationVar(&since, "since", 0, "only runs started within this duration")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}

func setupRunsTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Submission", "Task", "Status", "Phase", "Log", "Duration", "Started"})
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	return table
}

func runRow(run models.Run, now time.Time) []string {
	status := string(run.Status)
	if status == "" {
		status = "-"
	}
	if run.TimedOut {
		status += " (timed out)"
	} else if run.Cancelled {
		status += " (cancelled)"
	}

	log := humanize.Bytes(uint64(run.LogBytes))
	if run.LogTruncated {
		log += " (truncated)"
	}

	duration := "-"
	if d := run.Duration(); d > 0 {
		duration = d.Round(time.Second).String()
	}

	return []string{
		shortID(run.RunID),
		run.SubmissionID,
		run.Task,
		status,
		string(run.Phase),
		log,
		duration,
		humanize.RelTime(run.StartedAt, now, "ago", "from now"),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
