// Package console implements the console reporter.
// Writes readings to stdout as text, JSON lines or YAML documents.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/pkg/plugin"
)

// ConsoleReporter writes readings to the console.
type ConsoleReporter struct {
	name          string
	format        string // "text", "json" or "yaml"
	out           io.Writer
	mu            sync.Mutex
	reportedCount atomic.Uint64
}

// Config represents console reporter configuration.
type Config struct {
	Format string `mapstructure:"format"` // text|json|yaml, default text
}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter() plugin.Reporter {
	return &ConsoleReporter{
		name:   "console",
		format: "text",
		out:    os.Stdout,
	}
}

// Name returns the plugin name.
func (r *ConsoleReporter) Name() string {
	return r.name
}

// Init initializes the reporter with configuration.
func (r *ConsoleReporter) Init(config map[string]any) error {
	if config == nil {
		return nil
	}

	var cfg Config
	if err := mapstructure.Decode(config, &cfg); err != nil {
		return fmt.Errorf("decode console options: %w", err)
	}
	switch cfg.Format {
	case "":
	case "text", "json", "yaml":
		r.format = cfg.Format
	default:
		return fmt.Errorf("invalid format %q, must be text, json or yaml", cfg.Format)
	}
	return nil
}

// Start starts the reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	slog.Info("console reporter started", "format", r.format)
	return nil
}

// Stop stops the reporter.
func (r *ConsoleReporter) Stop(ctx context.Context) error {
	slog.Info("console reporter stopped", "total_reported", r.reportedCount.Load())
	return nil
}

// Report writes a reading to the console.
func (r *ConsoleReporter) Report(ctx context.Context, rd *core.Reading) error {
	if rd == nil {
		return fmt.Errorf("nil reading")
	}

	var (
		data []byte
		err  error
	)
	switch r.format {
	case "json":
		data, err = json.Marshal(view(rd))
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(view(rd))
		data = append([]byte("---\n"), data...)
	default:
		data = []byte(formatText(rd))
	}
	if err != nil {
		return fmt.Errorf("%s marshal failed: %w", r.format, err)
	}

	r.mu.Lock()
	_, err = r.out.Write(data)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("console write failed: %w", err)
	}
	r.reportedCount.Add(1)
	return nil
}

// Flush is a no-op for console reporter (stdout is unbuffered).
func (r *ConsoleReporter) Flush(ctx context.Context) error {
	return nil
}

type readingView struct {
	Source    string       `json:"source" yaml:"source"`
	Seq       uint64       `json:"seq" yaml:"seq"`
	Timestamp string       `json:"timestamp" yaml:"timestamp"`
	Kind      string       `json:"kind" yaml:"kind"`
	Record    core.Record  `json:"record" yaml:"record"`
	Variant   core.Variant `json:"variant,omitempty" yaml:"variant,omitempty"`
}

func view(rd *core.Reading) readingView {
	return readingView{
		Source:    rd.Source,
		Seq:       rd.Seq,
		Timestamp: rd.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Kind:      rd.Kind(),
		Record:    rd.Record,
		Variant:   rd.Variant,
	}
}

// formatText renders one line, e.g.
// [15:04:05.000] mock #12 aggregate signal=0 attention=48 meditation=61 power=[...]
func formatText(rd *core.Reading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s #%d %s", rd.Timestamp.Format("15:04:05.000"), rd.Source, rd.Seq, rd.Kind())

	rec := rd.Record
	if rec.SignalQuality != nil {
		fmt.Fprintf(&b, " signal=%d", *rec.SignalQuality)
	}
	if rec.Attention != nil {
		fmt.Fprintf(&b, " attention=%d", *rec.Attention)
	}
	if rec.Meditation != nil {
		fmt.Fprintf(&b, " meditation=%d", *rec.Meditation)
	}
	if rec.RawWave != nil {
		fmt.Fprintf(&b, " raw=%d", *rec.RawWave)
	}
	if rec.Power != nil {
		fmt.Fprintf(&b, " power=%v", rec.Power.Values())
	}
	b.WriteByte('\n')
	return b.String()
}
