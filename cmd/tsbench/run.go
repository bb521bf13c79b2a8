package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tsbench/internal/bench"
	"tsbench/internal/config"
	"tsbench/internal/db"
	"tsbench/internal/metrics"
	"tsbench/internal/notify"
)

var (
	runNoHistory bool
	runNotify    bool
)

// sweeper abstracts the orchestrator for tests.
type sweeper interface {
	Sweep(ctx context.Context) (*bench.Run, error)
}

// Seams for mocking in tests.
var (
	newSweeperFunc = func(cfg *config.Config, m *metrics.Metrics) sweeper {
		o := bench.NewOrchestrator(cfg)
		o.Metrics = m
		return o
	}
	newHistoryStoreFunc = func(cfg *config.Config) (db.Store, error) {
		return db.NewStore(db.StoreConfig{Backend: cfg.HistoryBackend, DSN: cfg.HistoryDSN})
	}
	newNotifierFunc = func(channel string) notify.Notifier {
		if n := notify.NewSlackNotifier(channel); n != nil {
			return n
		}
		return nil
	}
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark every project in the workspace",
	Long: `Runs the full benchmark sweep: for each project under the projects root,
installs dependencies, locates tsconfig files, and measures a full build
followed by an incremental build after a simulated source edit. The ordered
result set is written as one JSON artifact at the end of the run.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("projects", "", "Projects directory (default <workspace>/projects)")
	runCmd.Flags().String("logs", "", "Logs directory (default <workspace>/logs)")
	runCmd.Flags().String("out", "", "Result-set path (default <logs>/results.json)")
	runCmd.Flags().Int("depth", 4, "Maximum tsconfig search depth")
	runCmd.Flags().Int("max-memory", 8192, "Node heap cap in MB for compiler invocations")
	runCmd.Flags().Bool("skip-install", false, "Skip the dependency-install stage")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record this run in the history store")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "Send a Slack notification when the sweep finishes")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsPort > 0 {
		reg := prometheus.NewRegistry()
		m = metrics.NewWithRegistry(reg)
		metrics.Serve(cfg.MetricsPort, reg)
		slog.Info("Serving metrics", "port", cfg.MetricsPort)
	}

	run, err := newSweeperFunc(cfg, m).Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("benchmark sweep failed: %w", err)
	}

	if !runNoHistory && cfg.HistoryBackend != "" {
		saveHistory(cfg, run)
	}

	summary := fmt.Sprintf("tsbench sweep finished: %d records from %s", len(run.Records), cfg.ProjectsDir)
	if runNotify || cfg.SlackEnabled {
		if n := newNotifierFunc(cfg.SlackChannel); n != nil {
			if err := n.Notify(cmd.Context(), summary); err != nil {
				slog.Warn("Failed to send notification", "error", err)
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(run.Records), cfg.ResultsFile)
	return nil
}

// saveHistory is best-effort: the JSON artifact is the source of truth.
func saveHistory(cfg *config.Config, run *bench.Run) {
	store, err := newHistoryStoreFunc(cfg)
	if err != nil {
		slog.Warn("Failed to open history store", "backend", cfg.HistoryBackend, "error", err)
		return
	}
	defer store.Close()

	if err := store.SaveRun(*run); err != nil {
		slog.Warn("Failed to record run history", "error", err)
		return
	}
	slog.Info("Run recorded in history", "backend", cfg.HistoryBackend)
}
