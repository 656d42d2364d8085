package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lain-code/lain/internal/config"
	"github.com/lain-code/lain/internal/logging"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, nil)

	root := &cobra.Command{
		Use:           "lain",
		Short:         "lain - Claude Code usage and cost from local session logs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReportCommand(cfg, logger))
	root.AddCommand(newStatsCommand(cfg, logger))
	root.AddCommand(newProjectsCommand(cfg, logger))
	root.AddCommand(newConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
