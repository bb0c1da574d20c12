package pipeline

import (
	"io"
	"time"

	"firestige.xyz/thinkgear/internal/config"
	"firestige.xyz/thinkgear/internal/core/decoder"
	"firestige.xyz/thinkgear/pkg/plugin"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Classify: true,
		},
	}
}

// FromConfig copies the source, decoder and report sections of a loaded
// configuration.
func (b *Builder) FromConfig(cfg *config.GlobalConfig) *Builder {
	b.config.Source = cfg.Source.Name
	b.config.ReadTimeout = cfg.Source.ReadTimeout
	b.config.Classify = cfg.Decoder.Classify
	b.config.MaxRecords = cfg.Decoder.MaxRecords
	b.config.Batch = BatchConfig{
		Size:      cfg.Report.BatchSize,
		Timeout:   cfg.Report.BatchTimeout,
		QueueSize: cfg.Report.QueueSize,
	}
	if cfg.Source.BufferSize > 0 {
		b.config.StreamOpts = append(b.config.StreamOpts, decoder.WithBufferSize(cfg.Source.BufferSize))
	}
	return b
}

// WithSource sets the source name.
func (b *Builder) WithSource(name string) *Builder {
	b.config.Source = name
	return b
}

// WithStream sets the byte stream to decode.
func (b *Builder) WithStream(r io.Reader) *Builder {
	b.config.Stream = r
	return b
}

// WithObserver adds a diagnostics observer.
func (b *Builder) WithObserver(o decoder.Observer) *Builder {
	b.config.Observer = o
	return b
}

// WithClassify enables or disables classification.
func (b *Builder) WithClassify(on bool) *Builder {
	b.config.Classify = on
	return b
}

// WithMaxRecords stops the pipeline after n records.
func (b *Builder) WithMaxRecords(n int) *Builder {
	b.config.MaxRecords = n
	return b
}

// WithReadTimeout bounds the wait for each record.
func (b *Builder) WithReadTimeout(d time.Duration) *Builder {
	b.config.ReadTimeout = d
	return b
}

// WithReporters sets the reporter chain.
func (b *Builder) WithReporters(reporters ...plugin.Reporter) *Builder {
	b.config.Reporters = reporters
	return b
}

// WithFallback routes readings primary fails to deliver to fallback.
func (b *Builder) WithFallback(primary, fallback plugin.Reporter) *Builder {
	if b.config.Fallbacks == nil {
		b.config.Fallbacks = make(map[plugin.Reporter]plugin.Reporter)
	}
	b.config.Fallbacks[primary] = fallback
	return b
}

// WithBatch sets the reporter batch size and flush interval.
func (b *Builder) WithBatch(size int, timeout time.Duration) *Builder {
	b.config.Batch.Size = size
	b.config.Batch.Timeout = timeout
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
