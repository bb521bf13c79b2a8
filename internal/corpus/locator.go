package corpus

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const configFileName = "tsconfig.json"

// defaultDenylist names directories the locator never descends into.
// Dependency installation fills some of these with thousands of nested
// tsconfigs that must not become benchmark targets.
var defaultDenylist = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"out",
	".next",
	"coverage",
	".turbo",
	".yarn",
	".pnpm-store",
	"vendor",
}

// Locator finds build-configuration files inside a project, bounded by
// depth and a directory denylist.
type Locator struct {
	MaxDepth int
	denylist map[string]struct{}
}

// NewLocator builds a Locator with the default denylist. maxDepth counts
// directory levels below the project root; a non-positive value falls back
// to 4.
func NewLocator(maxDepth int) *Locator {
	if maxDepth <= 0 {
		maxDepth = 4
	}
	deny := make(map[string]struct{}, len(defaultDenylist))
	for _, name := range defaultDenylist {
		deny[name] = struct{}{}
	}
	return &Locator{MaxDepth: maxDepth, denylist: deny}
}

// Find returns the deduplicated, sorted set of absolute configuration paths
// under projectDir. An empty result is a valid outcome meaning "skip this
// project". Unreadable directories are logged and skipped.
func (l *Locator) Find(projectDir string) []string {
	found := make(map[string]struct{})
	l.walk(projectDir, 0, found)

	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	// Discovery order is platform-dependent; sort for reproducible logs.
	sort.Strings(paths)
	return paths
}

func (l *Locator) walk(dir string, depth int, found map[string]struct{}) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("Skipping unreadable directory during config search", "dir", dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			if _, banned := l.denylist[entry.Name()]; banned {
				continue
			}
			if depth+1 > l.MaxDepth {
				continue
			}
			l.walk(filepath.Join(dir, entry.Name()), depth+1, found)
			continue
		}
		if entry.Name() == configFileName {
			abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			found[abs] = struct{}{}
		}
	}
}
