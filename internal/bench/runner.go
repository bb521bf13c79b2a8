package bench

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// execCommand allows mocking the compiler subprocess in tests.
var execCommand = exec.CommandContext

// Runner invokes the external TypeScript compiler. The flag set is fixed:
// no emit, machine-stable output, extended diagnostics, library checking
// skipped, and persistent build state so the second invocation of a target
// behaves as an incremental build.
type Runner struct {
	// LogsDir receives one raw-output log per (project, target, buildType).
	LogsDir string

	// MaxOldSpaceMB caps the node heap for every invocation.
	MaxOldSpaceMB int
}

// BuildResult captures one compiler invocation.
type BuildResult struct {
	ExitCode int
	Wall     time.Duration
	Output   string
	// LogPath is relative to LogsDir, as embedded in result records.
	LogPath string
}

// Compile runs tsc for one configuration. A non-zero compiler exit is data,
// not an error; an error return means the process could not be run at all.
// The raw output log is flushed before returning in either case.
func (r *Runner) Compile(ctx context.Context, projectDir, project, configPath, buildType string) (BuildResult, error) {
	buildInfo := filepath.Join(filepath.Dir(configPath), ".tsbench.tsbuildinfo")

	args := []string{
		"tsc",
		"-p", configPath,
		"--noEmit",
		"--pretty", "false",
		"--extendedDiagnostics",
		"--skipLibCheck",
		"--incremental",
		"--tsBuildInfoFile", buildInfo,
	}

	cmd := execCommand(ctx, "npx", args...)
	cmd.Dir = projectDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("NODE_OPTIONS=--max-old-space-size=%d", r.MaxOldSpaceMB))

	start := time.Now()
	out, err := cmd.CombinedOutput()
	wall := time.Since(start)

	res := BuildResult{
		Wall:   wall,
		Output: string(out),
	}
	target := configPath
	if rel, relErr := filepath.Rel(projectDir, configPath); relErr == nil {
		target = rel
	}
	res.LogPath = r.writeLog(project, target, buildType, out)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("failed to run compiler for %s: %w", configPath, err)
	}
	return res, nil
}

// writeLog persists raw output and returns the path relative to LogsDir.
// Log failures degrade to an empty path rather than failing the invocation.
func (r *Runner) writeLog(project, target, buildType string, out []byte) string {
	name := fmt.Sprintf("%s__%s__%s.log", project, targetSlug(target), buildType)
	if err := os.MkdirAll(r.LogsDir, 0755); err != nil {
		return ""
	}
	if err := os.WriteFile(filepath.Join(r.LogsDir, name), out, 0644); err != nil {
		return ""
	}
	return name
}

var slugReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_")

// targetSlug flattens a project-relative configuration path into a
// file-name-safe token.
func targetSlug(target string) string {
	return slugReplacer.Replace(target)
}
