package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/thinkgear/internal/config"
)

func TestParseLevelValid(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestParseLevelInvalid(t *testing.T) {
	for _, input := range []string{"invalid", "trace", "fatal", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := parseLevel(input)
			assert.Error(t, err)
		})
	}
}

func TestInitStdoutOnly(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	err := Init(config.LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, slog.Default())
}

func TestInitInvalidFormat(t *testing.T) {
	err := Init(config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("checksum mismatch", "expected", 16)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"checksum mismatch"`)
	assert.Contains(t, out, `"expected":16`)
}

func TestNewHandlerWithFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "thinkgear.log")

	var stdout bytes.Buffer
	h, err := NewHandler(config.LogConfig{
		Level:  "debug",
		Format: "text",
		Outputs: config.LogOutputsConfig{
			File: config.FileOutputConfig{
				Enabled: true,
				Path:    logPath,
				Rotation: config.RotationConfig{
					MaxSizeMB:  1,
					MaxBackups: 1,
				},
			},
		},
	}, &stdout)
	require.NoError(t, err)

	slog.New(h).Debug("frame decoded", "seq", 1)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame decoded")
	assert.Contains(t, stdout.String(), "seq=1")
}

func TestNewHandlerFileOutputWithoutPath(t *testing.T) {
	_, err := NewHandler(config.LogConfig{
		Level:   "info",
		Format:  "text",
		Outputs: config.LogOutputsConfig{File: config.FileOutputConfig{Enabled: true}},
	}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPatternHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(config.LogConfig{
		Level:   "info",
		Format:  "pattern",
		Pattern: "[%level] %caller: %msg {%field}%n",
	}, &buf)
	require.NoError(t, err)

	logger := slog.New(h).With("source", "mock").WithGroup("frame")
	logger.Debug("dropped")
	logger.Info("decoded", "seq", 7, slog.Group("power", "delta", 3))

	line := strings.TrimSpace(buf.String())
	assert.NotContains(t, line, "dropped")
	assert.True(t, strings.HasPrefix(line, "[info] log/logger_test.go:"), line)
	assert.Contains(t, line, ": decoded {")
	assert.Contains(t, line, "source=mock")
	assert.Contains(t, line, "frame.seq=7")
	assert.Contains(t, line, "frame.power.delta=3")
}

func TestPatternHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := newPatternHandler(&buf, "%level %msg", slog.LevelWarn)
	logger := slog.New(h)

	logger.Info("skip")
	logger.Warn("resync")
	logger.Error("closed")

	assert.Equal(t, "warning resync\nerror closed\n", buf.String())
}
