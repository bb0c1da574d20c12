// Package jsonl implements a reporter that appends readings as JSON lines
// to a size-rotated file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/natefinch/lumberjack.v2"

	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/pkg/plugin"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
	defaultBufferSize = 64 * 1024
)

// Config represents jsonl reporter configuration.
type Config struct {
	Path       string `mapstructure:"path"` // required
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Reporter appends readings to a rotating JSONL file.
type Reporter struct {
	config Config

	mu   sync.Mutex
	file *lumberjack.Logger
	buf  *bufio.Writer
	enc  *json.Encoder
	n    uint64
}

// NewReporter creates a new jsonl reporter.
func NewReporter() plugin.Reporter {
	return &Reporter{}
}

func (r *Reporter) Name() string { return "jsonl" }

func (r *Reporter) Init(config map[string]any) error {
	cfg := Config{MaxSizeMB: defaultMaxSizeMB, MaxBackups: defaultMaxBackups}
	if err := mapstructure.Decode(config, &cfg); err != nil {
		return fmt.Errorf("decode jsonl options: %w", err)
	}
	if cfg.Path == "" {
		return fmt.Errorf("path is required")
	}
	r.config = cfg
	return nil
}

// Start opens the file. lumberjack creates it and its directory lazily on
// the first write.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file = &lumberjack.Logger{
		Filename:   r.config.Path,
		MaxSize:    r.config.MaxSizeMB,
		MaxAge:     r.config.MaxAgeDays,
		MaxBackups: r.config.MaxBackups,
		Compress:   r.config.Compress,
	}
	r.buf = bufio.NewWriterSize(r.file, defaultBufferSize)
	r.enc = json.NewEncoder(r.buf)
	slog.Info("jsonl reporter started", "path", r.config.Path, "max_size_mb", r.config.MaxSizeMB)
	return nil
}

func (r *Reporter) Report(ctx context.Context, rd *core.Reading) error {
	if rd == nil {
		return fmt.Errorf("nil reading")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return fmt.Errorf("jsonl reporter not started")
	}
	if err := r.enc.Encode(rd.Fields()); err != nil {
		return fmt.Errorf("jsonl write failed: %w", err)
	}
	r.n++
	return nil
}

func (r *Reporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf == nil {
		return nil
	}
	return r.buf.Flush()
}

func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	flushErr := r.buf.Flush()
	closeErr := r.file.Close()
	r.file, r.buf, r.enc = nil, nil, nil
	slog.Info("jsonl reporter stopped", "path", r.config.Path, "total_reported", r.n)
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
