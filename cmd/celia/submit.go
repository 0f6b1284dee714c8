package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/celia-console/internal/remote"
)

var (
	submitBackend string
	submitRepo    string
)

var submitCmd = &cobra.Command{
	Use:   "submit <task>",
	Short: "Dispatch a job to the backend",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitBackend, "backend", "", "Remote job backend base URL (defaults to CELIA_BACKEND_URL)")
	submitCmd.Flags().StringVar(&submitRepo, "repo", "", "Repository URL to clone into the job workspace")
	rootCmd.AddCommand(submitCmd)
}

func backendURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("CELIA_BACKEND_URL"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("backend URL is required (--backend or CELIA_BACKEND_URL)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	base, err := backendURL(submitBackend)
	if err != nil {
		return err
	}
	client, err := remote.NewClient(base, nil)
	if err != nil {
		return err
	}

	jobID, err := client.Create(cmd.Context(), args[0], submitRepo)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	fmt.Printf("Job %s accepted\n", jobID)
	return nil
}
