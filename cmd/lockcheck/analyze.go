package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lockcheck/internal/analyze"
	"lockcheck/internal/config"
	"lockcheck/internal/output"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configFile string
		format     string
		outFile    string
		dialect    string
		pgVersion  int
		workers    int
		failOn     string
	)

	cmd := &cobra.Command{
		Use:   "analyze <migration-file...>",
		Short: "Analyze migration files and report per-table lock impact",
		Long: `Analyze inspects schema migration files (raw SQL or ActiveRecord Ruby)
and reports, per affected table, the lock each operation acquires, whether
it blocks reads and writes, how long it is held, and an aggregate risk level.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, format, dialect, pgVersion, workers, failOn)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runAnalyze(cmd, cfg, args, outFile)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: markdown, json, or pretty")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write output to file instead of stdout")
	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "Force migration dialect: postgres or activerecord")
	cmd.Flags().IntVar(&pgVersion, "pg-version", 0, "PostgreSQL major version migrations run against")
	cmd.Flags().IntVar(&workers, "workers", 0, "Max concurrent file analyses")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit nonzero when any report reaches this risk level")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, format, dialect string, pgVersion, workers int, failOn string) {
	if cmd.Flags().Changed("format") {
		cfg.Format = format
	}
	if cmd.Flags().Changed("dialect") {
		cfg.Dialect = dialect
	}
	if cmd.Flags().Changed("pg-version") {
		cfg.PGVersion = pgVersion
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("fail-on") {
		cfg.FailOn = failOn
	}
}

func runAnalyze(cmd *cobra.Command, cfg *config.Config, paths []string, outFile string) error {
	formatter, err := output.NewFormatter(cfg.Format)
	if err != nil {
		return err
	}

	analyzer := analyze.New(cfg)
	results := analyzer.AnalyzeFiles(cmd.Context(), paths)

	var sb strings.Builder
	failed := false
	threshold, hasThreshold := cfg.FailThreshold()

	// JSON payloads already carry the file name; markdown-style headers
	// would corrupt the stream.
	jsonOut := strings.EqualFold(strings.TrimSpace(cfg.Format), string(output.FormatJSON))

	for _, res := range results {
		if len(paths) > 1 && !jsonOut {
			fmt.Fprintf(&sb, "## %s\n\n", res.Path)
		}
		if res.Err != nil {
			failed = true
			log.Error().Str("file", res.Path).Err(res.Err).Msg("analysis failed")
			fmt.Fprintf(&sb, "Error: %v\n\n", res.Err)
			continue
		}

		log.Debug().Str("file", res.Path).Int("impacts", len(res.Report.Impacts)).
			Stringer("risk", res.Report.Risk).Msg("analyzed")

		out, err := formatter.FormatReport(res.Report)
		if err != nil {
			return fmt.Errorf("failed to format report for %s: %w", res.Path, err)
		}
		sb.WriteString(out)
		if len(paths) > 1 {
			sb.WriteString("\n")
		}

		if hasThreshold && res.Report.Risk >= threshold {
			failed = true
		}
		if res.Report.TxFlag != nil && res.Report.TxFlag.Conflict {
			failed = true
		}
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Print(sb.String())
	}

	if failed {
		// Keep cobra from re-printing usage for an analysis outcome.
		cmd.SilenceUsage = true
		return fmt.Errorf("analysis reported failures")
	}
	return nil
}
