package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/tarka/ent/alertjob"
	"github.com/codeready-toolchain/tarka/internal/queue"
	"github.com/codeready-toolchain/tarka/internal/report"
)

func newRunJobCmd() *cobra.Command {
	var jobID string
	var dumpJSON string
	cmd := &cobra.Command{
		Use:   "run-job",
		Short: "Claim and execute one specific queued job by id, ignoring its available_at backoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobID == "" {
				return fmt.Errorf("--job-id is required")
			}
			mode, err := dumpMode(dumpJSON)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := buildApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			row, err := a.dbClient.AlertJob.Query().
				Where(alertjob.IDEQ(jobID)).
				Only(ctx)
			if err != nil {
				return fmt.Errorf("find job %s: %w", jobID, err)
			}

			job, err := queue.JobFromRow(row)
			if err != nil {
				return fmt.Errorf("decode job %s: %w", jobID, err)
			}

			result := a.pipeline.Execute(ctx, job)
			if result.Err != nil {
				return fmt.Errorf("job %s failed: %w", jobID, result.Err)
			}

			if mode != "" {
				out, err := report.Dump(result.Investigation, mode)
				if err != nil {
					return fmt.Errorf("dump investigation: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("job %s: %s\n", jobID, result.Disposition)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job-id", "", "queue job id (<alertname>/<hash>) to run immediately (required)")
	cmd.Flags().StringVar(&dumpJSON, "dump-json", "", "emit machine-readable JSON instead of writing a report: analysis or investigation")
	return cmd
}
