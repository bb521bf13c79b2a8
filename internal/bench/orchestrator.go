package bench

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"tsbench/internal/config"
	"tsbench/internal/corpus"
	"tsbench/internal/deps"
	"tsbench/internal/metrics"
)

// Orchestrator drives one full sweep: discover projects, install their
// dependencies, locate configurations, and benchmark each configuration
// with a full build followed by an incremental build after a simulated
// edit. Execution is strictly sequential; the only shared state is the
// growing result set.
type Orchestrator struct {
	Cfg       *config.Config
	Installer *deps.Installer
	Locator   *corpus.Locator
	Runner    *Runner

	// Metrics is optional; a nil value disables instrumentation.
	Metrics *metrics.Metrics
}

func NewOrchestrator(cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		Cfg:       cfg,
		Installer: deps.NewInstaller(),
		Locator:   corpus.NewLocator(cfg.MaxDepth),
		Runner: &Runner{
			LogsDir:       cfg.LogsDir,
			MaxOldSpaceMB: cfg.MaxOldSpaceMB,
		},
	}
}

// Sweep benchmarks every project under the projects root and persists the
// complete result set once at the end. Individual project failures degrade
// their own records and never abort the sweep.
func (o *Orchestrator) Sweep(ctx context.Context) (*Run, error) {
	projects, err := corpus.DiscoverProjects(o.Cfg.ProjectsDir)
	if err != nil {
		return nil, err
	}
	slog.Info("Starting benchmark sweep", "projects", len(projects), "root", o.Cfg.ProjectsDir)

	agg := NewAggregator()
	for _, project := range projects {
		o.benchmarkProject(ctx, project, agg)
	}

	run := &Run{
		Timestamp: time.Now().UTC(),
		Workspace: o.Cfg.Workspace,
		Records:   agg.Records(),
	}
	if err := agg.Save(o.Cfg.ResultsFile); err != nil {
		return run, err
	}
	slog.Info("Sweep complete", "records", len(run.Records), "results", o.Cfg.ResultsFile)
	return run, nil
}

func (o *Orchestrator) benchmarkProject(ctx context.Context, project corpus.Project, agg *Aggregator) {
	slog.Info("Benchmarking project", "project", project.Name)
	if o.Metrics != nil {
		o.Metrics.ProjectsInFlight.Set(1)
		defer func() {
			o.Metrics.ProjectsInFlight.Set(0)
			o.Metrics.ProjectsProcessed.Inc()
		}()
	}

	if !o.Cfg.SkipInstall {
		manager, err := o.Installer.Install(ctx, project.Path)
		if err != nil {
			// Compilation may still work with whatever is on disk, and a
			// failing build is itself a benchmark data point.
			slog.Warn("Dependency installation failed", "project", project.Name, "manager", manager, "error", err)
			if o.Metrics != nil {
				o.Metrics.InstallFailures.Inc()
			}
		} else {
			slog.Info("Dependencies installed", "project", project.Name, "manager", manager)
		}
	}

	configs := o.Locator.Find(project.Path)
	if o.Metrics != nil {
		o.Metrics.ConfigsDiscovered.Add(float64(len(configs)))
	}
	if len(configs) == 0 {
		slog.Info("No build configurations found, skipping", "project", project.Name)
		agg.Append(Record{
			Project:   project.Name,
			BuildType: BuildSkip,
		})
		return
	}

	for _, configPath := range configs {
		o.benchmarkConfig(ctx, project, configPath, agg)
	}
}

func (o *Orchestrator) benchmarkConfig(ctx context.Context, project corpus.Project, configPath string, agg *Aggregator) {
	target := configPath
	if rel, err := filepath.Rel(project.Path, configPath); err == nil {
		target = rel
	}
	slog.Info("Full build", "project", project.Name, "target", target)
	agg.Append(o.runBuild(ctx, project, configPath, target, BuildFull, ""))

	changed, err := SimulateChange(configPath)
	if err != nil {
		slog.Warn("Change simulation failed", "project", project.Name, "target", target, "error", err)
		return
	}
	if changed == "" {
		// Nothing mutable under this configuration; the incremental
		// scenario simply does not apply.
		slog.Info("No eligible source file, skipping incremental build", "project", project.Name, "target", target)
		return
	}

	slog.Info("Incremental build", "project", project.Name, "target", target, "changed", changed)
	agg.Append(o.runBuild(ctx, project, configPath, target, BuildIncremental, changed))
}

func (o *Orchestrator) runBuild(ctx context.Context, project corpus.Project, configPath, target, buildType, changed string) Record {
	rec := Record{
		Project:     project.Name,
		Target:      strPtr(target),
		BuildType:   buildType,
		ChangedFile: changed,
	}

	res, err := o.Runner.Compile(ctx, project.Path, project.Name, configPath, buildType)
	rec.WallMs = res.Wall.Milliseconds()
	if res.LogPath != "" {
		rec.Log = strPtr(res.LogPath)
	}
	if err != nil {
		// The compiler process could not be run at all; exit code and
		// metrics stay null.
		slog.Warn("Compiler invocation failed", "project", project.Name, "target", target, "error", err)
		return rec
	}

	rec.ExitCode = intPtr(res.ExitCode)
	rec.Metrics = ParseDiagnostics(res.Output)
	if o.Metrics != nil {
		o.Metrics.ObserveBuild(buildType, res.ExitCode, res.Wall)
	}
	return rec
}
