package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lain-code/lain/cli/internal/output"
	"github.com/lain-code/lain/cli/internal/remote"
	"github.com/lain-code/lain/internal/aggregator"
	"github.com/lain-code/lain/internal/config"
	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/project"
	"github.com/lain-code/lain/internal/report"
)

const remoteTimeout = time.Minute

func newReportCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		dir      string
		date     string
		timezone string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Model breakdown of the log files modified on one day",
		Long: `Selects every session log whose modification time falls on --date and
counts lines, sessions and API calls per model. Defaults to yesterday.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := time.Local
			if timezone != "" {
				l, err := time.LoadLocation(timezone)
				if err != nil {
					return fmt.Errorf("invalid timezone: %s", timezone)
				}
				loc = l
			}

			if date == "" {
				date = report.Yesterday(time.Now().In(loc))
			}
			day, err := report.NormalizeDate(date)
			if err != nil {
				return err
			}

			rep := report.Daily(dir, day, loc, logger)
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), rep)
			}
			return output.PrintReport(cmd.OutOrStdout(), rep)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", cfg.DataDir, "Log directory to scan")
	cmd.Flags().StringVar(&date, "date", "", "Day to report (YYYYMMDD, default yesterday)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone for modification dates (e.g., America/New_York)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newStatsCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		projects string
		since    string
		until    string
		server   string
		jsonOut  bool
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Token, cost and session totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := optionalDate(since)
			if err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			end, err := optionalDate(until)
			if err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			opts, err := aggregator.ParseStatsOptions(projects, start, end)
			if err != nil {
				return err
			}

			var stats model.AggregateStats
			if server != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
				defer cancel()
				stats, err = remote.NewClient(server).Stats(ctx, opts)
				if err != nil {
					return fmt.Errorf("query %s: %w", server, err)
				}
			} else {
				stats = localAggregator(cfg, logger).Stats(opts)
			}

			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), stats)
			}
			return output.PrintStats(cmd.OutOrStdout(), stats, output.TableOptions{ForceCompact: compact})
		},
	}

	cmd.Flags().StringVar(&projects, "projects", "", "Comma-separated project folders (default all)")
	cmd.Flags().StringVar(&since, "since", "", "Start date filter (YYYYMMDD)")
	cmd.Flags().StringVar(&until, "until", "", "End date filter (YYYYMMDD)")
	cmd.Flags().StringVar(&server, "server", cfg.Server, "Query a lain-server instead of local logs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "Force compact table output")
	return cmd
}

func newProjectsCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		server  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List project folders and their display names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				projects []model.ProjectEntry
				err      error
			)
			if server != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), remoteTimeout)
				defer cancel()
				projects, err = remote.NewClient(server).Projects(ctx)
				if err != nil {
					return fmt.Errorf("query %s: %w", server, err)
				}
			} else {
				projects = localAggregator(cfg, logger).Projects()
			}

			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), projects)
			}
			return output.PrintProjects(cmd.OutOrStdout(), projects)
		},
	}

	cmd.Flags().StringVar(&server, "server", cfg.Server, "Query a lain-server instead of local logs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newConfigCommand() *cobra.Command {
	var (
		dataDir string
		server  string
		show    bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update ~/.lain.yaml",
		Example: `  lain config --data-dir /mnt/backup/claude/projects
  lain config --server http://homebox:8080
  lain config --show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}

			if show {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config file: %s\n", path)
				fmt.Fprintf(out, "Data dir: %s\n", cfg.DataDir)
				fmt.Fprintf(out, "Listen addr: %s\n", cfg.Addr)
				fmt.Fprintf(out, "Log level: %s\n", cfg.LogLevel)
				if cfg.Server != "" {
					fmt.Fprintf(out, "Server: %s\n", cfg.Server)
				}
				return nil
			}

			if !cmd.Flags().Changed("data-dir") && !cmd.Flags().Changed("server") {
				return cmd.Help()
			}

			cfg, err := config.LoadFile()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("server") {
				cfg.Server = server
			}

			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding Claude Code project logs")
	cmd.Flags().StringVar(&server, "server", "", "Default lain-server URL for stats and projects")
	cmd.Flags().BoolVar(&show, "show", false, "Show current configuration")
	return cmd
}

func localAggregator(cfg *config.Config, logger *slog.Logger) *aggregator.Aggregator {
	return aggregator.New(cfg.DataDir, project.NewResolver(cfg.NamePrefixes...), logger)
}

// optionalDate normalizes a YYYYMMDD flag, keeping empty as unbounded
func optionalDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	return report.NormalizeDate(raw)
}
