package bench

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsbench/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	ws := t.TempDir()
	cfg := &config.Config{
		Workspace:     ws,
		ProjectsDir:   filepath.Join(ws, "projects"),
		LogsDir:       filepath.Join(ws, "logs"),
		ResultsFile:   filepath.Join(ws, "logs", "results.json"),
		MaxDepth:      4,
		MaxOldSpaceMB: 4096,
		SkipInstall:   true,
	}
	require.NoError(t, os.MkdirAll(cfg.ProjectsDir, 0755))
	return cfg
}

func mockCompiler(t *testing.T, script string) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestSweep_FullAndIncrementalPerConfig(t *testing.T) {
	cfg := testConfig(t)
	proj := filepath.Join(cfg.ProjectsDir, "alpha")
	writeFile(t, filepath.Join(proj, "tsconfig.json"), "{}")
	writeFile(t, filepath.Join(proj, "src", "index.ts"), "export {};\n")
	mockCompiler(t, "printf 'Files: 10\\nTotal time: 1.00s\\n'")

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Records, 2)

	full, inc := run.Records[0], run.Records[1]
	assert.Equal(t, BuildFull, full.BuildType)
	assert.Equal(t, BuildIncremental, inc.BuildType)
	assert.Equal(t, full.Project, inc.Project)
	require.NotNil(t, full.Target)
	require.NotNil(t, inc.Target)
	assert.Equal(t, *full.Target, *inc.Target)
	assert.Equal(t, "tsconfig.json", *full.Target)
	assert.Equal(t, "index.ts", inc.ChangedFile)
	assert.Empty(t, full.ChangedFile)

	require.NotNil(t, full.Files)
	assert.Equal(t, int64(10), *full.Files)
	require.NotNil(t, full.ExitCode)
	assert.Equal(t, 0, *full.ExitCode)
}

func TestSweep_NoEligibleFileSkipsIncremental(t *testing.T) {
	cfg := testConfig(t)
	proj := filepath.Join(cfg.ProjectsDir, "declonly")
	writeFile(t, filepath.Join(proj, "tsconfig.json"), "{}")
	writeFile(t, filepath.Join(proj, "types.d.ts"), "declare const x: number;\n")
	mockCompiler(t, "printf 'Files: 1\\n'")

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Records, 1)
	assert.Equal(t, BuildFull, run.Records[0].BuildType)
}

func TestSweep_NoConfigsYieldsSkipRecord(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ProjectsDir, "empty"), 0755))

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Records, 1)
	rec := run.Records[0]
	assert.Equal(t, "empty", rec.Project)
	assert.Equal(t, BuildSkip, rec.BuildType)
	assert.Nil(t, rec.Target)
	assert.Nil(t, rec.ExitCode)
	assert.Nil(t, rec.Log)
}

func TestSweep_EmptyWorkspace(t *testing.T) {
	cfg := testConfig(t)

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, run.Records)

	// The result artifact is still written, as an empty array.
	records, err := LoadRecords(cfg.ResultsFile)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweep_CompilerFailureStillRecorded(t *testing.T) {
	cfg := testConfig(t)
	proj := filepath.Join(cfg.ProjectsDir, "broken")
	writeFile(t, filepath.Join(proj, "tsconfig.json"), "{}")
	writeFile(t, filepath.Join(proj, "main.ts"), "export {};\n")
	mockCompiler(t, "printf 'Found 4 errors.\\n'; exit 1")

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Records, 2)
	full := run.Records[0]
	require.NotNil(t, full.ExitCode)
	assert.Equal(t, 1, *full.ExitCode)
	require.NotNil(t, full.Diagnostics)
	assert.Equal(t, int64(4), *full.Diagnostics)
}

func TestSweep_MonorepoConfigs(t *testing.T) {
	cfg := testConfig(t)
	proj := filepath.Join(cfg.ProjectsDir, "mono")
	writeFile(t, filepath.Join(proj, "packages", "a", "tsconfig.json"), "{}")
	writeFile(t, filepath.Join(proj, "packages", "a", "index.ts"), "export {};\n")
	writeFile(t, filepath.Join(proj, "packages", "b", "tsconfig.json"), "{}")
	writeFile(t, filepath.Join(proj, "packages", "b", "index.ts"), "export {};\n")
	mockCompiler(t, "printf 'Files: 2\\n'")

	run, err := NewOrchestrator(cfg).Sweep(context.Background())
	require.NoError(t, err)

	// Two configurations, each with a full and an incremental build.
	require.Len(t, run.Records, 4)
	targets := map[string]int{}
	for _, rec := range run.Records {
		require.NotNil(t, rec.Target)
		targets[*rec.Target]++
	}
	assert.Equal(t, 2, targets[filepath.Join("packages", "a", "tsconfig.json")])
	assert.Equal(t, 2, targets[filepath.Join("packages", "b", "tsconfig.json")])
}
