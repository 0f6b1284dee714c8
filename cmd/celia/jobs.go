package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/celia-console/internal/observability"
	"github.com/jonathan/celia-console/internal/remote"
)

var jobsBackend string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs on the backend",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsBackend, "backend", "", "Remote job backend base URL (defaults to CELIA_BACKEND_URL)")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	base, err := backendURL(jobsBackend)
	if err != nil {
		return err
	}
	client, err := remote.NewClient(base, nil)
	if err != nil {
		return err
	}

	jobs, err := client.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintJobList(jobs)
	return nil
}
