package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/celia-console/internal/logfmt"
	"github.com/jonathan/celia-console/internal/observability"
	"github.com/jonathan/celia-console/internal/remote"
)

var tailBackend string

var tailCmd = &cobra.Command{
	Use:   "tail <job-id>",
	Short: "Show a job's classified log entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailBackend, "backend", "", "Remote job backend base URL (defaults to CELIA_BACKEND_URL)")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	base, err := backendURL(tailBackend)
	if err != nil {
		return err
	}
	client, err := remote.NewClient(base, nil)
	if err != nil {
		return err
	}

	job, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintJobDetail(job, logfmt.Parse(job.Logs))
	return nil
}
