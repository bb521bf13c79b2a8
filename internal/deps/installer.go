package deps

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// execCommand allows mocking package-manager subprocesses in tests.
var execCommand = exec.CommandContext

// Manager describes one package manager as a strategy tuple: a lockfile
// detection marker, a probe for the binary, a provisioning recipe for when
// the probe fails, and install strategies ordered strict-to-permissive.
// Every install runs with lifecycle scripts disabled; the harness never
// executes install-time code from third-party projects.
type Manager struct {
	Name      string
	Lockfile  string
	Probe     []string
	Provision [][]string
	Installs  [][]string
}

// DefaultManagers is the detection priority order. The trailing entry has
// no lockfile marker and acts as the fallback for unrecognized projects.
func DefaultManagers() []Manager {
	return []Manager{
		{
			Name:     "pnpm",
			Lockfile: "pnpm-lock.yaml",
			Probe:    []string{"pnpm", "--version"},
			Provision: [][]string{
				{"corepack", "enable"},
				{"corepack", "prepare", "pnpm@latest", "--activate"},
			},
			Installs: [][]string{
				{"pnpm", "install", "--frozen-lockfile", "--ignore-scripts"},
				{"pnpm", "install", "--ignore-scripts"},
			},
		},
		{
			Name:     "yarn",
			Lockfile: "yarn.lock",
			Probe:    []string{"yarn", "--version"},
			Provision: [][]string{
				{"corepack", "enable"},
				{"corepack", "prepare", "yarn@stable", "--activate"},
			},
			Installs: [][]string{
				{"yarn", "install", "--frozen-lockfile", "--ignore-scripts"},
				{"yarn", "install", "--ignore-scripts"},
			},
		},
		{
			Name:     "bun",
			Lockfile: "bun.lockb",
			Probe:    []string{"bun", "--version"},
			Installs: [][]string{
				{"bun", "install", "--frozen-lockfile", "--ignore-scripts"},
				{"bun", "install", "--ignore-scripts"},
			},
		},
		{
			Name:     "npm",
			Lockfile: "package-lock.json",
			Probe:    []string{"npm", "--version"},
			Installs: [][]string{
				{"npm", "ci", "--ignore-scripts"},
				{"npm", "install", "--ignore-scripts"},
			},
		},
		{
			Name:  "npm",
			Probe: []string{"npm", "--version"},
			Installs: [][]string{
				{"npm", "install", "--ignore-scripts"},
			},
		},
	}
}

// Installer selects and drives the package manager for a project.
type Installer struct {
	Managers []Manager
}

func NewInstaller() *Installer {
	return &Installer{Managers: DefaultManagers()}
}

// Install detects the project's package manager by lockfile, provisions the
// binary if the probe fails, and walks the install strategies until one
// succeeds. The returned error is for the caller to log; installation
// failure never aborts a sweep.
func (ins *Installer) Install(ctx context.Context, projectDir string) (string, error) {
	mgr := ins.detect(projectDir)

	if err := ins.run(ctx, projectDir, mgr.Probe); err != nil {
		slog.Debug("Package manager probe failed, provisioning", "manager", mgr.Name, "error", err)
		for _, argv := range mgr.Provision {
			if provErr := ins.run(ctx, projectDir, argv); provErr != nil {
				slog.Warn("Provisioning step failed", "manager", mgr.Name, "step", argv[0], "error", provErr)
			}
		}
		if err := ins.run(ctx, projectDir, mgr.Probe); err != nil {
			return mgr.Name, fmt.Errorf("%s is unavailable after provisioning: %w", mgr.Name, err)
		}
	}

	var lastErr error
	for _, argv := range mgr.Installs {
		if err := ins.run(ctx, projectDir, argv); err != nil {
			slog.Warn("Install strategy failed, falling back", "manager", mgr.Name, "strategy", fmt.Sprint(argv), "error", err)
			lastErr = err
			continue
		}
		return mgr.Name, nil
	}
	return mgr.Name, fmt.Errorf("all %s install strategies failed: %w", mgr.Name, lastErr)
}

// detect returns the first manager whose lockfile exists, or the fallback.
func (ins *Installer) detect(projectDir string) Manager {
	for _, mgr := range ins.Managers {
		if mgr.Lockfile == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(projectDir, mgr.Lockfile)); err == nil {
			return mgr
		}
	}
	return ins.Managers[len(ins.Managers)-1]
}

func (ins *Installer) run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := execCommand(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", argv[0], err, out.String())
	}
	return nil
}
