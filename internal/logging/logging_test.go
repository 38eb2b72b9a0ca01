package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sapprep.log")
	cfg := DefaultConfig("")
	cfg.File = path
	cfg.Level = "warn"

	logger, closer, err := New(cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("exam expired", "session_id", "abc")
	require.NoError(t, closer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "exam expired", lines[0]["msg"])
	assert.Equal(t, "abc", lines[0]["session_id"])
	assert.Equal(t, "sapprep", lines[0]["app"])
}

func TestNew_NoDestinationDiscards(t *testing.T) {
	logger, closer, err := New(Config{})
	require.NoError(t, err)
	logger.Error("nowhere")
	assert.NoError(t, closer.Close())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/data/sapprep")
	assert.Equal(t, filepath.Join("/data/sapprep", "sapprep.log"), cfg.File)
	assert.Equal(t, "info", cfg.Level)
	assert.Empty(t, DefaultConfig("").File)
}
