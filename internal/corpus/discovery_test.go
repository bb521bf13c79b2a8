package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverProjects(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "beta"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	projects, err := DiscoverProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	names := []string{projects[0].Name, projects[1].Name}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
	assert.Equal(t, filepath.Join(root, projects[0].Name), projects[0].Path)
}

func TestDiscoverProjects_EmptyRoot(t *testing.T) {
	projects, err := DiscoverProjects(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestDiscoverProjects_MissingRoot(t *testing.T) {
	_, err := DiscoverProjects(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
