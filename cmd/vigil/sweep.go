package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vigil-hq/vigil/pkg/cli"
	"vigil-hq/vigil/pkg/config"
	"vigil-hq/vigil/pkg/telemetry/logging"
	"vigil-hq/vigil/pkg/workflow"
	"vigil-hq/vigil/pkg/workflow/storage"
)

var sweepFlags struct {
	format string
}

// SweepReport is the outcome of one escalation sweep.
type SweepReport struct {
	Results   []workflow.EscalationResult `json:"results"`
	Escalated int                         `json:"escalated"`
	Failed    int                         `json:"failed"`
}

// RenderText prints one line per escalated or failed case plus a summary.
func (r SweepReport) RenderText(w io.Writer) error {
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			if _, err := fmt.Fprintf(w, "✗ %s: %s\n", res.CaseNumber, res.Error); err != nil {
				return err
			}
		case res.Escalated:
			if _, err := fmt.Fprintf(w, "✓ %s escalated to level %d (%s)\n", res.CaseNumber, res.Level, res.Role); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "sweep complete: %d escalated, %d failed\n", r.Escalated, r.Failed)
	return err
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the escalation sweep once and exit",
	Long: `Run the overdue-case escalation sweep once against the configured
case store and exit.

The sweep finds every non-terminal case past its SLA deadline and walks
it up the escalation ladder. It is idempotent: running it twice never
escalates a case past level 5 or duplicates an escalation.

Intended for cron-driven deployments that prefer an external scheduler
over the built-in one.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepFlags.format, "format", "text", "output format: text, json")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	if cfg.Cases.Backend != "sqlite" {
		return fmt.Errorf("one-shot sweep requires the sqlite case backend, got %q", cfg.Cases.Backend)
	}

	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
		Path:         cfg.Cases.SQLitePath,
		MaxOpenConns: cfg.Cases.MaxOpenConns,
		MaxIdleConns: cfg.Cases.MaxIdleConns,
		WALMode:      cfg.Cases.WALMode,
		BusyTimeout:  cfg.Cases.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("open case store: %w", err)
	}
	defer store.Close()

	ctx := cli.SetupSignalHandler()

	engine := workflow.NewEscalationEngine(store, logger, nil, nil)
	results, err := engine.AutoEscalateOverdue(ctx)
	if err != nil {
		return err
	}

	report := SweepReport{Results: results}
	for _, r := range results {
		switch {
		case r.Err != nil:
			report.Failed++
		case r.Escalated:
			report.Escalated++
		}
	}

	formatter := cli.NewFormatter(cli.OutputFormat(sweepFlags.format))
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

	if report.Failed > 0 {
		return cli.NewCommandError("sweep", fmt.Errorf("%d escalations failed", report.Failed))
	}
	return nil
}
