package bench

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_PreservesOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Append(Record{Project: "a", BuildType: BuildFull})
	agg.Append(Record{Project: "a", BuildType: BuildIncremental})
	agg.Append(Record{Project: "b", BuildType: BuildSkip})

	records := agg.Records()
	require.Len(t, records, 3)
	assert.Equal(t, BuildFull, records[0].BuildType)
	assert.Equal(t, BuildIncremental, records[1].BuildType)
	assert.Equal(t, "b", records[2].Project)
}

func TestAggregator_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	agg := NewAggregator()
	agg.Append(Record{
		Project:   "proj",
		Target:    strPtr("tsconfig.json"),
		BuildType: BuildFull,
		ExitCode:  intPtr(0),
		WallMs:    1234,
		Metrics: Metrics{
			Files:       int64Ptr(42),
			Diagnostics: int64Ptr(0),
		},
		Log: strPtr("proj__tsconfig.json__full.log"),
	})
	require.NoError(t, agg.Save(path))

	records, err := LoadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "proj", records[0].Project)
	require.NotNil(t, records[0].Files)
	assert.Equal(t, int64(42), *records[0].Files)
	require.NotNil(t, records[0].Diagnostics)
	assert.Equal(t, int64(0), *records[0].Diagnostics)
}

func TestAggregator_SaveEmptySetIsAnArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, NewAggregator().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestRecord_NullFieldsSerializeAsNull(t *testing.T) {
	// Absent metrics must appear as JSON null, not be omitted: consumers
	// distinguish "not parsed" from "zero".
	data, err := json.Marshal(Record{Project: "p", BuildType: BuildSkip})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, field := range []string{"target", "exitCode", "files", "lines", "memoryKB",
		"totalTimeSec", "diagnostics", "log"} {
		v, ok := raw[field]
		require.True(t, ok, "field %s missing", field)
		assert.Nil(t, v, "field %s should be null", field)
	}
	assert.Equal(t, "skip", raw["buildType"])
}
