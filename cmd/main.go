package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"filepipe/internal/config"
	"filepipe/internal/pipeline"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "filepipe",
		Short: "Background file-processing pipeline",
		Long: `filepipe watches an input directory, transforms discovered files by
type (text, CSV, JSON, XML, generic copy), writes results to an output
directory and routes unprocessable files to an errors subdirectory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(configPath, debug)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "path to YAML config file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return rootCmd.Execute()
}

func runPipeline(configPath string, debug bool) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := pipeline.New(cfg)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	if err := p.Start(baseCtx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	waitForShutdownSignal()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if !p.Stop(ctx) {
		log.Warn().Msg("background work did not finish before timeout")
	}
	log.Info().Msg("pipeline exited cleanly")
	return nil
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}
