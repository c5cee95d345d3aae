package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/tarka/internal/dedup"
	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/codeready-toolchain/tarka/internal/queue"
	"github.com/codeready-toolchain/tarka/internal/report"
	"github.com/codeready-toolchain/tarka/internal/storage"
)

func newInvestigateCmd() *cobra.Command {
	var (
		alertname    string
		namespace    string
		pod          string
		container    string
		workloadKind string
		workloadName string
		labels       map[string]string
		dumpJSON     string
	)

	cmd := &cobra.Command{
		Use:   "investigate",
		Short: "Run one investigation directly against live providers, bypassing the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alertname == "" {
				return fmt.Errorf("--alertname is required")
			}
			mode, err := dumpMode(dumpJSON)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := buildApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			allLabels := map[string]string{"alertname": alertname}
			if namespace != "" {
				allLabels["namespace"] = namespace
			}
			if pod != "" {
				allLabels["pod"] = pod
			}
			for k, v := range labels {
				allLabels[k] = v
			}

			now := time.Now()
			alert := domain.NewAlertInstance("cli-"+alertname, allLabels, nil, now.Format(time.RFC3339), "", "", "firing", "firing")

			var target domain.TargetRef
			switch {
			case pod != "" && namespace != "":
				target = domain.TargetRef{TargetType: domain.TargetPod, Namespace: namespace, Pod: pod, Container: container}
			case workloadKind != "" && workloadName != "" && namespace != "":
				target = domain.TargetRef{TargetType: domain.TargetWorkload, Namespace: namespace, WorkloadKind: workloadKind, WorkloadName: workloadName}
			case namespace != "":
				target = domain.TargetRef{TargetType: domain.TargetCluster, Namespace: namespace}
			default:
				target = domain.TargetRef{TargetType: domain.TargetUnknown}
			}

			key := dedup.FingerprintKey(alert, now)
			job := &queue.Job{ID: key.String(), Alertname: alertname, Alert: alert, Target: target}

			result := a.pipeline.Execute(ctx, job)
			if result.Err != nil {
				return fmt.Errorf("investigation failed: %w", result.Err)
			}

			if mode != "" {
				out, err := report.Dump(result.Investigation, mode)
				if err != nil {
					return fmt.Errorf("dump investigation: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			reportKey := storage.ReportKey(alertname, key.Hash)
			fmt.Printf("investigation %s: report written to %s\n", result.Disposition, reportKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&alertname, "alertname", "", "alertname to investigate (required)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "target namespace")
	cmd.Flags().StringVar(&pod, "pod", "", "target pod name")
	cmd.Flags().StringVar(&container, "container", "", "target container name")
	cmd.Flags().StringVar(&dumpJSON, "dump-json", "", "emit machine-readable JSON instead of writing a report: analysis or investigation")
	cmd.Flags().StringVar(&workloadKind, "workload-kind", "", "target workload kind (Deployment, StatefulSet, ...)")
	cmd.Flags().StringVar(&workloadName, "workload-name", "", "target workload name")
	cmd.Flags().StringToStringVar(&labels, "label", nil, "additional alert label key=value (repeatable)")
	return cmd
}
