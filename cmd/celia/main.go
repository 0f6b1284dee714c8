// Package main provides the entry point for the Celia agent console.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "celia",
	Short: "Celia agent console",
	Long:  "Celia dispatches and monitors asynchronous agent jobs against a remote execution backend, with a local model-driven simulation fallback when the backend is unreachable.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
