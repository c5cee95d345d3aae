// tarka is the automated incident-investigation agent: it ingests
// Alertmanager webhooks, runs the evidence-collection and scoring
// pipeline, and publishes Markdown + JSON reports. This binary wires
// together every internal/ package behind a cobra CLI surface, following
// the subcommand-per-mode idiom the rest-of-pack CLI tools (bgdnvk-clanker,
// zicongmei-gke-mcp) use in place of the teacher's single-mode
// flag-parsing main().
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tarka",
		Short: "Automated incident investigation agent",
	}
	cmd.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newInvestigateCmd(),
		newRunJobCmd(),
		newListCmd(),
	)
	return cmd
}
