package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vigil-hq/vigil/pkg/config"
	"vigil-hq/vigil/pkg/pipeline"
	"vigil-hq/vigil/pkg/policy/ast"
	"vigil-hq/vigil/pkg/policy/registry"
	"vigil-hq/vigil/pkg/profile"
	"vigil-hq/vigil/pkg/riskservice"
	"vigil-hq/vigil/pkg/server"
	"vigil-hq/vigil/pkg/telemetry/logging"
	"vigil-hq/vigil/pkg/telemetry/metrics"
	"vigil-hq/vigil/pkg/workflow"
	"vigil-hq/vigil/pkg/workflow/storage"
	"vigil-hq/vigil/pkg/workflow/sweep"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vigil engine",
	Long: `Start the Vigil engine with the specified configuration.

The engine loads policy rules, opens the case store, connects the risk
service, starts the escalation sweep scheduler, and serves the signal
intake alongside metrics and health endpoints. Upstream monitors POST
compliance signals to /signals; each one runs the full enrichment,
evaluation, and enforcement pipeline.

Examples:
  # Start with default config
  vigil run

  # Start with custom config
  vigil run --config /etc/vigil/config.yaml

  # Override listen address
  vigil run --listen 0.0.0.0:8085

  # Validate config without starting
  vigil run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{
			Enabled:   true,
			Namespace: cfg.Metrics.Namespace,
			Path:      cfg.Metrics.Path,
		}, nil)
	}

	// Policy rule registry
	var backend registry.Backend
	if cfg.Rules.Backend == "sqlite" {
		b, err := registry.NewSQLiteBackendWithConfig(registry.SQLiteBackendConfig{
			DBPath:      cfg.Rules.SQLitePath,
			BusyTimeout: cfg.Rules.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("open rule store: %w", err)
		}
		backend = b
		defer b.Close()
	}
	reg := registry.New(backend, logger)
	if err := reg.Restore(ctx); err != nil {
		return fmt.Errorf("restore rules: %w", err)
	}
	if err := reg.LoadDir(ctx, cfg.Rules.Dir); err != nil {
		logger.Warn("rule directory load failed", "dir", cfg.Rules.Dir, "error", err)
	}
	logger.Info("policy rules loaded", "count", reg.Len(), "dir", cfg.Rules.Dir)

	// Case persistence
	var caseStore workflow.CaseStore
	if cfg.Cases.Backend == "sqlite" {
		s, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         cfg.Cases.SQLitePath,
			MaxOpenConns: cfg.Cases.MaxOpenConns,
			MaxIdleConns: cfg.Cases.MaxIdleConns,
			WALMode:      cfg.Cases.WALMode,
			BusyTimeout:  cfg.Cases.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("open case store: %w", err)
		}
		caseStore = s
	} else {
		caseStore = storage.NewMemoryStore()
	}
	defer caseStore.Close()

	// Profile store (in-process; production deployments satisfy the
	// same interfaces against the vendor master system)
	profiles := profile.NewMemoryStore()

	var caseMetrics *metrics.CaseMetrics
	if collector != nil {
		caseMetrics = collector.Cases
	}

	manager := workflow.NewManager(workflow.ManagerConfig{
		Store:    caseStore,
		SLA:      slaFromConfig(cfg.Workflow.SLA),
		Exposure: profiles,
		Lifter:   profiles,
		Logger:   logger,
		Metrics:  caseMetrics,
	})
	escalation := workflow.NewEscalationEngine(caseStore, logger, caseMetrics, nil)
	gate := workflow.NewHumanValidationGate(manager, escalation, profiles,
		cfg.Workflow.ConfidenceThreshold, logger)
	dispatcher := workflow.NewDispatcher(manager, profiles, profiles, logger, nil)

	var enricher pipeline.Enricher
	var scorer pipeline.RiskScorer
	if cfg.RiskService.Enabled {
		client := riskservice.NewClient(riskservice.ClientConfig{
			BaseURL:      cfg.RiskService.BaseURL,
			Timeout:      cfg.RiskService.Timeout,
			MaxIdleConns: cfg.RiskService.MaxIdleConns,
		})
		enricher = client
		scorer = client
	}

	processor := pipeline.NewProcessor(pipeline.ProcessorConfig{
		Rules:      reg,
		Dispatcher: dispatcher,
		Gate:       gate,
		Profiles:   profiles,
		Enricher:   enricher,
		Scorer:     scorer,
		Sink:       pipeline.NewMemorySink(),
		Metrics:    collector,
		Logger:     logger,
	})
	intake := pipeline.NewIntakeHandler(processor, logger)

	// Escalation sweep
	sweeper := sweep.NewScheduler(escalation, cfg.Workflow.SweepSchedule)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start escalation sweep: %w", err)
	}
	defer sweeper.Stop()

	// Rule hot reload
	if cfg.Rules.Watch {
		watcher, err := registry.NewFileWatcher(cfg.Rules.Dir, logger)
		if err != nil {
			return fmt.Errorf("watch rule directory: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return reg.LoadDir(ctx, cfg.Rules.Dir)
			}); err != nil {
				logger.Error("rule watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	srv := server.New(&cfg.Server, server.Options{
		MetricsPath:    cfg.Metrics.Path,
		MetricsHandler: metricsHandler,
		Readiness:      reg,
		IntakeHandler:  intake,
		Logger:         logger,
	})

	logger.Info("vigil engine started",
		"listen_address", cfg.Server.ListenAddress,
		"rules", reg.Len(),
		"case_backend", cfg.Cases.Backend,
		"risk_service", cfg.RiskService.Enabled)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("vigil engine stopped")
	return nil
}

func slaFromConfig(entries map[string]config.SLAEntry) workflow.SLAConfig {
	sla := workflow.DefaultSLAConfig()
	for name, entry := range entries {
		sla[ast.Severity(name)] = workflow.SLATerms{
			ResponseDays:   entry.ResponseDays,
			ResolutionDays: entry.ResolutionDays,
		}
	}
	return sla
}
