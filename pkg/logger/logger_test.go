package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestNew_TextFormat(t *testing.T) {
	cfg := &config.LogConfig{
		Level:  "info",
		Format: "text",
	}

	output := captureStderr(t, func() {
		log := New(cfg)
		log.Info("test message", "key", "value")
	})

	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "level=INFO")
}

func TestNew_JSONFormat(t *testing.T) {
	cfg := &config.LogConfig{
		Level:  "info",
		Format: "json",
	}

	output := captureStderr(t, func() {
		log := New(cfg)
		log.Info("test message", "key", "value")
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNew_LevelFiltering(t *testing.T) {
	cfg := &config.LogConfig{
		Level:  "warn",
		Format: "text",
	}

	output := captureStderr(t, func() {
		log := New(cfg)
		log.Info("hidden")
		log.Warn("visible")
	})

	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, v := range tests {
		assert.Equal(t, v.want, ParseLevel(v.input), v.input)
	}
}
