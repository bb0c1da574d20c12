package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/thinkgear/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
thinkgear:
  source:
    name: "headset-1"
    type: "tcp"
    address: "127.0.0.1:5555"
    dial_timeout: "2s"
    read_timeout: "10s"
  decoder:
    classify: false
    max_records: 100
  reporters:
    - type: "console"
      options:
        format: "json"
    - type: "kafka"
      options:
        brokers: ["localhost:9092"]
        topic: "eeg"
      fallback:
        type: "jsonl"
        options:
          path: "/var/spool/thinkgear/eeg.jsonl"
  metrics:
    enabled: true
    listen: "127.0.0.1:9100"
  log:
    level: "debug"
    format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "headset-1", cfg.Source.Name)
	assert.Equal(t, "tcp", cfg.Source.Type)
	assert.Equal(t, "127.0.0.1:5555", cfg.Source.Address)
	assert.Equal(t, 2*time.Second, cfg.Source.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.Source.ReadTimeout)
	assert.Equal(t, 4096, cfg.Source.BufferSize)

	assert.False(t, cfg.Decoder.Classify)
	assert.Equal(t, 100, cfg.Decoder.MaxRecords)

	require.Len(t, cfg.Reporters, 2)
	assert.Equal(t, "console", cfg.Reporters[0].Type)
	assert.Equal(t, "json", cfg.Reporters[0].Options["format"])
	assert.Equal(t, "kafka", cfg.Reporters[1].Type)
	assert.Equal(t, "eeg", cfg.Reporters[1].Options["topic"])
	assert.Nil(t, cfg.Reporters[0].Fallback)
	require.NotNil(t, cfg.Reporters[1].Fallback)
	assert.Equal(t, "jsonl", cfg.Reporters[1].Fallback.Type)
	assert.Equal(t, "/var/spool/thinkgear/eeg.jsonl", cfg.Reporters[1].Fallback.Options["path"])

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
thinkgear:
  source:
    type: "mock"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Source.Name)
	assert.Equal(t, 512, cfg.Source.Mock.RawRateHz)
	assert.Equal(t, 512, cfg.Source.Mock.AggregateRate)
	assert.True(t, cfg.Decoder.Classify)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Log.Outputs.File.Enabled)
	assert.Equal(t, 100, cfg.Log.Outputs.File.Rotation.MaxSizeMB)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 64, cfg.Report.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Report.BatchTimeout)
	assert.Equal(t, 4096, cfg.Report.QueueSize)

	require.Len(t, cfg.Reporters, 1)
	assert.Equal(t, "console", cfg.Reporters[0].Type)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Source.Type)
	assert.Equal(t, "/dev/rfcomm0", cfg.Source.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
thinkgear:
  source:
    type: "mock"
`)
	t.Setenv("THINKGEAR_LOG_LEVEL", "warn")
	t.Setenv("THINKGEAR_SOURCE_MOCK_SEED", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, int64(42), cfg.Source.Mock.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{
			name: "unknown source",
			content: `
thinkgear:
  source:
    type: "bluetooth"
`,
			target: core.ErrUnknownSource,
		},
		{
			name: "tcp without address",
			content: `
thinkgear:
  source:
    type: "tcp"
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "bad log level",
			content: `
thinkgear:
  log:
    level: "verbose"
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "bad log format",
			content: `
thinkgear:
  log:
    format: "xml"
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "corrupt ratio out of range",
			content: `
thinkgear:
  source:
    type: "mock"
    mock:
      corrupt_ratio: 1.5
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "reporter without type",
			content: `
thinkgear:
  reporters:
    - options:
        format: "json"
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "fallback without type",
			content: `
thinkgear:
  reporters:
    - type: "kafka"
      fallback:
        options:
          path: "x.jsonl"
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "mock rate above tick resolution",
			content: `
thinkgear:
  source:
    type: "mock"
    mock:
      raw_rate_hz: 2000000000
`,
			target: core.ErrConfigInvalid,
		},
		{
			name: "negative max records",
			content: `
thinkgear:
  decoder:
    max_records: -1
`,
			target: core.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
