package corpus

import (
	"fmt"
	"os"
	"path/filepath"
)

// Project is one corpus entry under the workspace projects root.
type Project struct {
	Name string
	Path string
}

// DiscoverProjects lists the immediate subdirectories of root. Entries that
// are not directories, or whose type cannot be determined, are skipped
// silently. Order follows the host directory listing, which is only stable
// enough for reproducible logs, not for correctness.
func DiscoverProjects(root string) ([]Project, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects root %s: %w", root, err)
	}

	projects := []Project{}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Vanished between listing and stat; treat as absent.
			continue
		}
		if !info.IsDir() {
			continue
		}
		projects = append(projects, Project{
			Name: entry.Name(),
			Path: filepath.Join(root, entry.Name()),
		})
	}
	return projects, nil
}
