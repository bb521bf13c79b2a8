package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
}

func TestLocator_FindsNestedConfigs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "tsconfig.json"))
	touch(t, filepath.Join(root, "packages", "core", "tsconfig.json"))

	paths := NewLocator(4).Find(root)
	require.Len(t, paths, 2)
	// Sorted for reproducible logs.
	assert.Equal(t, filepath.Join(root, "packages", "core", "tsconfig.json"), paths[0])
	assert.Equal(t, filepath.Join(root, "tsconfig.json"), paths[1])
}

func TestLocator_NeverDescendsIntoDenylistedDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "tsconfig.json"))
	// Installed dependencies carry their own tsconfigs; none may surface.
	touch(t, filepath.Join(root, "node_modules", "lib", "tsconfig.json"))
	touch(t, filepath.Join(root, ".git", "tsconfig.json"))
	touch(t, filepath.Join(root, "dist", "tsconfig.json"))
	touch(t, filepath.Join(root, "coverage", "deep", "tsconfig.json"))

	paths := NewLocator(4).Find(root)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(root, "tsconfig.json"), paths[0])
}

func TestLocator_RespectsDepthBound(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "b", "tsconfig.json"))           // depth 2
	touch(t, filepath.Join(root, "a", "b", "c", "tsconfig.json"))      // depth 3
	touch(t, filepath.Join(root, "a", "b", "c", "d", "tsconfig.json")) // one past the bound

	paths := NewLocator(3).Find(root)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.NotContains(t, p, filepath.Join("c", "d"))
	}
}

func TestLocator_EmptyProjectIsNotAnError(t *testing.T) {
	paths := NewLocator(4).Find(t.TempDir())
	assert.Empty(t, paths)
}

func TestLocator_DefaultsDepth(t *testing.T) {
	l := NewLocator(0)
	assert.Equal(t, 4, l.MaxDepth)
}
