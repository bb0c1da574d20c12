package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/internal/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunValidate(t *testing.T) {
	path := writeConfig(t, `
thinkgear:
  source:
    type: mock
    name: bench
  reporters:
    - type: console
      options:
        format: yaml
    - type: kafka
      options:
        brokers: ["localhost:9092"]
        topic: eeg
`)
	var buf bytes.Buffer
	require.NoError(t, runValidate(path, &buf))
	assert.Equal(t, "VALID: source \"bench\" (mock), classify=true, 2 reporter(s)\n", buf.String())
}

func TestRunValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "unknown source",
			body:    "thinkgear:\n  source:\n    type: bluetooth\n",
			wantErr: core.ErrUnknownSource,
		},
		{
			name:    "unknown reporter",
			body:    "thinkgear:\n  reporters:\n    - type: mqtt\n",
			wantErr: core.ErrUnknownReporter,
		},
		{
			name:    "bad reporter options",
			body:    "thinkgear:\n  reporters:\n    - type: console\n      options:\n        format: xml\n",
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runValidate(writeConfig(t, tt.body), &buf)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, buf.String(), "INVALID: ")
		})
	}
}

func TestBuildReporters_Fallback(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spool.jsonl")
	reporters, fallbacks, err := buildReporters([]config.ReporterConfig{
		{Type: "console"},
		{
			Type:     "kafka",
			Options:  map[string]any{"brokers": []string{"localhost:9092"}, "topic": "eeg"},
			Fallback: &config.FallbackConfig{Type: "jsonl", Options: map[string]any{"path": out}},
		},
	})
	require.NoError(t, err)
	require.Len(t, reporters, 2)
	require.Len(t, fallbacks, 1)
	assert.Nil(t, fallbacks[reporters[0]])
	require.NotNil(t, fallbacks[reporters[1]])
	assert.Equal(t, "jsonl", fallbacks[reporters[1]].Name())

	_, _, err = buildReporters([]config.ReporterConfig{
		{Type: "console", Fallback: &config.FallbackConfig{Type: "mqtt"}},
	})
	assert.ErrorIs(t, err, core.ErrUnknownReporter)
}

func TestListReporters(t *testing.T) {
	var buf bytes.Buffer
	listReporters(&buf)
	assert.Equal(t, "console\njsonl\nkafka\n", buf.String())
}

func TestRunDecode_MockToJSONL(t *testing.T) {
	out := filepath.Join(t.TempDir(), "readings.jsonl")

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Source.Type = "mock"
	cfg.Source.Name = "synthetic"
	cfg.Source.Mock = config.MockConfig{RawRateHz: 1000, AggregateRate: 10, Seed: 5, Frames: 30}
	cfg.Reporters = []config.ReporterConfig{{Type: "jsonl", Options: map[string]any{"path": out}}}
	cfg.Metrics = config.MetricsConfig{Enabled: true, Listen: "127.0.0.1:0", Path: "/metrics"}
	require.NoError(t, cfg.ValidateAndApplyDefaults())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runDecode(ctx, cfg))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	kinds := map[string]int{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		assert.Equal(t, "synthetic", m["source"])
		kinds[m["kind"].(string)]++
	}
	assert.Equal(t, map[string]int{"wave_sample": 27, "aggregate": 3}, kinds)
}

func TestRunDecode_MaxRecordsStopsEndlessSource(t *testing.T) {
	out := filepath.Join(t.TempDir(), "readings.jsonl")

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Source.Type = "mock"
	cfg.Source.Mock = config.MockConfig{RawRateHz: 2000, Seed: 1}
	cfg.Decoder.MaxRecords = 10
	cfg.Reporters = []config.ReporterConfig{{Type: "jsonl", Options: map[string]any{"path": out}}}
	require.NoError(t, cfg.ValidateAndApplyDefaults())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runDecode(ctx, cfg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 10, bytes.Count(data, []byte("\n")))
}

func TestRunDecode_SourceError(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing")

	err = runDecode(context.Background(), cfg)
	assert.ErrorIs(t, err, core.ErrTransport)
}
