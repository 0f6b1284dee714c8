package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/celia-console/internal/config"
	"github.com/jonathan/celia-console/internal/console"
	"github.com/jonathan/celia-console/internal/llm"
	"github.com/jonathan/celia-console/internal/poller"
	"github.com/jonathan/celia-console/internal/remote"
	"github.com/jonathan/celia-console/internal/server"
	"github.com/jonathan/celia-console/internal/simulation"
	"github.com/jonathan/celia-console/internal/store"
)

var (
	serveConfigPath string
	servePort       int
	serveBackend    string
	serveModel      string
	servePollEvery  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console server",
	Long:  `Start the HTTP server that backs the browser console: job dispatch, reconciliation polling, log streaming, and the simulation fallback.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "Remote job backend base URL")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Generative model for simulations")
	serveCmd.Flags().IntVar(&servePollEvery, "poll-interval", 0, "Reconciliation period in seconds")
	rootCmd.AddCommand(serveCmd)
}

func loadServeConfig() (config.Config, error) {
	cfg := config.Config{}
	if serveConfigPath != "" {
		loaded, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// Flags override the file; env fills whatever is still empty.
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveBackend != "" {
		cfg.BackendURL = serveBackend
	}
	if serveModel != "" {
		cfg.Model = serveModel
	}
	if servePollEvery != 0 {
		cfg.PollInterval = servePollEvery
	}
	cfg.FromEnv()

	cfg = cfg.MergeWithDefaults(config.Config{
		Port:         config.DefaultPort,
		PollInterval: config.DefaultPollInterval,
	})
	return cfg, cfg.Validate()
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required for the simulation fallback")
	}

	backend, err := remote.NewClient(cfg.BackendURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	model, err := llm.NewGeminiClient(context.Background(), cfg.APIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer model.Close() //nolint:errcheck

	st := store.New()
	flag := poller.NewOnlineFlag()
	p := poller.New(backend, st, flag, time.Duration(cfg.PollInterval)*time.Second)
	c := console.New(st, backend, simulation.New(model), flag, p)

	srv := server.New(server.Config{Port: cfg.Port}, c, p)
	return srv.Start()
}
