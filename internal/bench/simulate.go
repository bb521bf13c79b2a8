package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var sourceExtensions = []string{".ts", ".tsx", ".mts", ".cts"}

// SimulateChange forces a cache-invalidating recompile by appending a
// uniquely timestamped, semantically inert comment to one source file near
// the given configuration. It looks in the configuration's own directory and
// then its src/ subdirectory, and returns the base name of the touched file.
// An empty name with nil error means no eligible file exists and the
// incremental phase should be skipped for this configuration.
func SimulateChange(configPath string) (string, error) {
	dir := filepath.Dir(configPath)
	for _, candidate := range []string{dir, filepath.Join(dir, "src")} {
		file, err := firstEligible(candidate)
		if err != nil || file == "" {
			continue
		}
		if err := appendComment(file); err != nil {
			return "", err
		}
		return filepath.Base(file), nil
	}
	return "", nil
}

func firstEligible(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isEligibleSource(entry.Name()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

// isEligibleSource reports whether name is a mutable source file: a
// TypeScript extension, not a test file, not declaration-only.
func isEligibleSource(name string) bool {
	lower := strings.ToLower(name)
	ok := false
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(lower, ext) {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") {
		return false
	}
	for _, decl := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(lower, decl) {
			return false
		}
	}
	return true
}

// appendComment appends rather than rewrites, preserving file identity and
// existing content.
func appendComment(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}
	defer f.Close()

	comment := fmt.Sprintf("\n// benchmark-change %d\n", time.Now().UnixNano())
	if _, err := f.WriteString(comment); err != nil {
		return fmt.Errorf("failed to append change comment to %s: %w", path, err)
	}
	return nil
}
