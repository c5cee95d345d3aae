package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/tarka/internal/queue"
	"github.com/codeready-toolchain/tarka/internal/retention"
)

func newWorkerCmd() *cobra.Command {
	var podID string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the durable-queue investigation worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if podID == "" {
				podID = fmt.Sprintf("tarka-worker-%d", os.Getpid())
			}

			pool := queue.NewPool(podID, a.dbClient, a.cfg.Queue, a.pipeline)
			pool.Start(ctx)
			defer pool.Stop()

			retentionSvc := retention.NewService(a.cfg.Retention, a.dbClient)
			retentionSvc.Start(ctx)
			defer retentionSvc.Stop()

			a.logger.Info("worker pool started", "pod_id", podID, "concurrency", a.cfg.Queue.Concurrency)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			a.logger.Info("shutting down worker pool")
			return nil
		},
	}
	cmd.Flags().StringVar(&podID, "pod-id", "", "identity reported by this worker (defaults to tarka-worker-<pid>)")
	return cmd
}
