package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesJSONFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsbench.log")
	InitLogger(false, logPath)
	t.Cleanup(func() { InitLogger(false, "") })

	slog.Info("sweep started", "projects", 3)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "sweep started", entry["msg"])
	assert.Equal(t, float64(3), entry["projects"])
}

func TestInitLoggerDebugLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tsbench.log")
	InitLogger(true, logPath)
	t.Cleanup(func() { InitLogger(false, "") })

	slog.Debug("probe failed")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "probe failed")
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}

	logger := slog.New(h).With("project", "widgets")
	logger.Info("compiled")

	assert.Contains(t, a.String(), "compiled")
	assert.Contains(t, a.String(), "project=widgets")
	assert.Contains(t, b.String(), `"project":"widgets"`)
}

func TestMultiHandlerEnabled(t *testing.T) {
	quiet := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	chatty := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := &multiHandler{handlers: []slog.Handler{quiet, chatty}}
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	h = &multiHandler{handlers: []slog.Handler{quiet}}
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
}
