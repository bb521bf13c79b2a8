package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsbench/internal/bench"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func int64Ptr(i int64) *int64     { return &i }
func floatPtr(f float64) *float64 { return &f }

func sampleRun(ts time.Time) bench.Run {
	return bench.Run{
		Timestamp: ts,
		Workspace: "/work",
		Records: []bench.Record{
			{
				Project:   "widgets",
				Target:    strPtr("tsconfig.json"),
				BuildType: bench.BuildFull,
				ExitCode:  intPtr(0),
				WallMs:    4120,
				Metrics: bench.Metrics{
					Files:        int64Ptr(120),
					Lines:        int64Ptr(45000),
					MemoryKB:     int64Ptr(312000),
					TotalTimeSec: floatPtr(3.21),
					Diagnostics:  int64Ptr(0),
				},
				Log: strPtr("/logs/widgets__tsconfig.json__full.log"),
			},
			{
				Project:   "empty-project",
				BuildType: bench.BuildSkip,
				WallMs:    0,
			},
		},
	}
}

func TestSaveRunAndListRuns(t *testing.T) {
	store := openTestStore(t)

	ts := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(sampleRun(ts)))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/work", runs[0].Workspace)
	assert.Equal(t, 2, runs[0].Records)
	assert.True(t, runs[0].Timestamp.Equal(ts))
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := sampleRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, store.SaveRun(run))
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Timestamp.After(runs[1].Timestamp))
}

func TestSaveRunPreservesNulls(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveRun(sampleRun(time.Now().UTC())))

	var target, exitCode, files any
	err := store.db.QueryRow(
		`SELECT target, exit_code, files FROM records WHERE project = ?`, "empty-project",
	).Scan(&target, &exitCode, &files)
	require.NoError(t, err)
	assert.Nil(t, target)
	assert.Nil(t, exitCode)
	assert.Nil(t, files)
}

func TestListRunsEmpty(t *testing.T) {
	store := openTestStore(t)
	runs, err := store.ListRuns(5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewStoreFactory(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(StoreConfig{Backend: "sqlite", DSN: filepath.Join(dir, "h.db")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewStore(StoreConfig{Backend: "postgres"})
	require.Error(t, err)

	_, err = NewStore(StoreConfig{Backend: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}
