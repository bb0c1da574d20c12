package console

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"firestige.xyz/thinkgear/internal/core"
)

func u8(v uint8) *uint8 { return &v }

func testReading() *core.Reading {
	power := core.PowerBands{Delta: 1, Theta: 2, LowAlpha: 3, HighAlpha: 4, LowBeta: 5, HighBeta: 6, LowGamma: 7, MidGamma: 8}
	return &core.Reading{
		Source:    "mock",
		Seq:       12,
		Timestamp: time.Date(2024, 5, 1, 10, 30, 15, 250*int(time.Millisecond), time.UTC),
		Record: core.Record{
			SignalQuality: u8(0),
			Attention:     u8(48),
			Meditation:    u8(61),
			Power:         &power,
		},
		Variant: core.AggregateReading{Attention: 48, Meditation: 61, Power: power},
	}
}

func newReporter(t *testing.T, cfg map[string]any) (*ConsoleReporter, *bytes.Buffer) {
	t.Helper()
	r := NewConsoleReporter().(*ConsoleReporter)
	require.NoError(t, r.Init(cfg))
	var buf bytes.Buffer
	r.out = &buf
	return r, &buf
}

func TestConsoleReporter_Init(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
		wantFmt string
	}{
		{name: "nil config defaults to text", config: nil, wantFmt: "text"},
		{name: "empty config defaults to text", config: map[string]any{}, wantFmt: "text"},
		{name: "json format", config: map[string]any{"format": "json"}, wantFmt: "json"},
		{name: "yaml format", config: map[string]any{"format": "yaml"}, wantFmt: "yaml"},
		{name: "invalid format", config: map[string]any{"format": "xml"}, wantErr: true},
		{name: "wrong type", config: map[string]any{"format": 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewConsoleReporter().(*ConsoleReporter)
			err := r.Init(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFmt, r.format)
		})
	}
}

func TestConsoleReporter_Text(t *testing.T) {
	r, buf := newReporter(t, nil)

	require.NoError(t, r.Report(context.Background(), testReading()))
	assert.Equal(t,
		"[10:30:15.250] mock #12 aggregate signal=0 attention=48 meditation=61 power=[1 2 3 4 5 6 7 8]\n",
		buf.String())

	buf.Reset()
	raw := int16(-300)
	require.NoError(t, r.Report(context.Background(), &core.Reading{
		Source:    "mock",
		Seq:       13,
		Timestamp: time.Date(2024, 5, 1, 10, 30, 15, 252*int(time.Millisecond), time.UTC),
		Record:    core.Record{RawWave: &raw},
	}))
	assert.Equal(t, "[10:30:15.252] mock #13 none raw=-300\n", buf.String())
}

func TestConsoleReporter_JSON(t *testing.T) {
	r, buf := newReporter(t, map[string]any{"format": "json"})
	require.NoError(t, r.Report(context.Background(), testReading()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "mock", got["source"])
	assert.Equal(t, float64(12), got["seq"])
	assert.Equal(t, "aggregate", got["kind"])
	assert.Equal(t, "2024-05-01T10:30:15.250Z", got["timestamp"])

	rec := got["record"].(map[string]any)
	assert.Equal(t, float64(48), rec["attention"])
	assert.NotContains(t, rec, "raw_wave")
	assert.Equal(t, float64(8), rec["power"].(map[string]any)["mid_gamma"])

	variant := got["variant"].(map[string]any)
	assert.Equal(t, float64(61), variant["meditation"])
	assert.Equal(t, float64(1), variant["power"].(map[string]any)["delta"])
}

func TestConsoleReporter_JSONVariant(t *testing.T) {
	r, buf := newReporter(t, map[string]any{"format": "json"})
	raw := int16(-7)
	rd := &core.Reading{Source: "mock", Seq: 1, Record: core.Record{RawWave: &raw}}

	require.NoError(t, r.Report(context.Background(), rd))
	var unclassified map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &unclassified))
	assert.NotContains(t, unclassified, "variant")

	buf.Reset()
	rd.Variant = core.WaveSample{Value: raw}
	require.NoError(t, r.Report(context.Background(), rd))
	var classified map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &classified))
	assert.Equal(t, "wave_sample", classified["kind"])
	assert.Equal(t, map[string]any{"value": float64(-7)}, classified["variant"])
}

func TestConsoleReporter_YAML(t *testing.T) {
	r, buf := newReporter(t, map[string]any{"format": "yaml"})
	require.NoError(t, r.Report(context.Background(), testReading()))
	require.NoError(t, r.Report(context.Background(), testReading()))

	dec := yaml.NewDecoder(buf)
	var docs int
	for {
		var doc struct {
			Source string `yaml:"source"`
			Kind   string `yaml:"kind"`
			Record struct {
				Meditation int            `yaml:"meditation"`
				Power      map[string]int `yaml:"power"`
			} `yaml:"record"`
			Variant struct {
				Attention int `yaml:"attention"`
			} `yaml:"variant"`
		}
		if err := dec.Decode(&doc); err != nil {
			break
		}
		docs++
		assert.Equal(t, "mock", doc.Source)
		assert.Equal(t, "aggregate", doc.Kind)
		assert.Equal(t, 61, doc.Record.Meditation)
		assert.Equal(t, 3, doc.Record.Power["low_alpha"])
		assert.Equal(t, 48, doc.Variant.Attention)
	}
	assert.Equal(t, 2, docs)
	assert.Equal(t, uint64(2), r.reportedCount.Load())
}

func TestConsoleReporter_NilReading(t *testing.T) {
	r, _ := newReporter(t, nil)
	assert.Error(t, r.Report(context.Background(), nil))
}

func TestConsoleReporter_Lifecycle(t *testing.T) {
	r := NewConsoleReporter()
	assert.Equal(t, "console", r.Name())

	ctx := context.Background()
	assert.NoError(t, r.Start(ctx))
	assert.NoError(t, r.Flush(ctx))
	assert.NoError(t, r.Stop(ctx))
}
