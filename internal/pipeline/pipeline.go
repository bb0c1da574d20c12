// Package pipeline drives a frame decoder over one stream and fans the
// resulting readings out to reporters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/internal/core/decoder"
	"firestige.xyz/thinkgear/internal/metrics"
	"firestige.xyz/thinkgear/pkg/plugin"
)

// Pipeline decodes one stream. The decode loop runs on the caller's
// goroutine; each reporter is fed through its own ReporterWrapper.
type Pipeline struct {
	source      string
	decoder     *decoder.Decoder
	classify    bool
	maxRecords  int
	readTimeout time.Duration
	reporters   []plugin.Reporter // primaries and fallbacks, in start order
	wrappers    []*ReporterWrapper
	metrics     *Metrics
	now         func() time.Time
}

// Config contains pipeline configuration.
type Config struct {
	Source      string    // Name used in readings, logs and metric labels
	Stream      io.Reader // Headset byte stream
	StreamOpts  []decoder.StreamOption
	Observer    decoder.Observer // Extra diagnostics observer, optional
	Classify    bool
	MaxRecords  int           // Stop after this many records, 0 = unlimited
	ReadTimeout time.Duration // Per-record timeout on deadline-capable streams, 0 = none
	Reporters   []plugin.Reporter
	Fallbacks   map[plugin.Reporter]plugin.Reporter // Primary → reporter receiving its failed readings
	Batch       BatchConfig
}

// BatchConfig is applied to every reporter's wrapper.
type BatchConfig struct {
	Size      int
	Timeout   time.Duration
	QueueSize int
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	observers := decoder.Observers{
		decoder.NewLogObserver(cfg.Source),
		metrics.NewObserver(cfg.Source),
		cfg.Observer,
	}

	p := &Pipeline{
		source:      cfg.Source,
		decoder:     decoder.New(decoder.NewReaderStream(cfg.Stream, cfg.StreamOpts...), decoder.WithObserver(observers)),
		classify:    cfg.Classify,
		maxRecords:  cfg.MaxRecords,
		readTimeout: cfg.ReadTimeout,
		metrics:     NewMetrics(cfg.Source),
		now:         time.Now,
	}
	for _, r := range cfg.Reporters {
		fallback := cfg.Fallbacks[r]
		p.reporters = append(p.reporters, r)
		if fallback != nil {
			p.reporters = append(p.reporters, fallback)
		}
		p.wrappers = append(p.wrappers, NewReporterWrapper(WrapperConfig{
			Reporter:     r,
			Fallback:     fallback,
			Source:       cfg.Source,
			Metrics:      p.metrics,
			BatchSize:    cfg.Batch.Size,
			BatchTimeout: cfg.Batch.Timeout,
			QueueSize:    cfg.Batch.QueueSize,
		}))
	}
	return p
}

// Run starts the reporters, decodes until the stream ends, ctx is done or
// MaxRecords is reached, then drains, flushes and stops the reporters.
// End of stream and cancellation are clean exits; a transport failure or an
// unwalkable payload is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	slog.Info("pipeline starting", "source", p.source, "classify", p.classify, "reporters", len(p.wrappers))

	for i, r := range p.reporters {
		if err := r.Start(ctx); err != nil {
			p.stopReporters(p.reporters[:i])
			return fmt.Errorf("start %s reporter: %w", r.Name(), err)
		}
	}

	// Pending readings are still delivered after ctx is canceled.
	reportCtx := context.WithoutCancel(ctx)
	for _, w := range p.wrappers {
		w.Start(reportCtx)
	}

	err := p.decodeLoop(ctx)
	for _, w := range p.wrappers {
		w.Close()
	}

	p.stopReporters(p.reporters)

	stats := p.Stats()
	slog.Info("pipeline stopped",
		"source", p.source,
		"frames", stats.Frames,
		"checksum_failures", stats.ChecksumFailures,
		"invalid_lengths", stats.InvalidLengths,
		"anomalies", stats.Anomalies,
		"reported", stats.Reported,
		"report_errors", stats.ReportErrors,
	)
	return err
}

// decodeLoop reads records and hands readings to the reporter wrappers.
func (p *Pipeline) decodeLoop(ctx context.Context) error {
	var seq uint64
	for p.maxRecords == 0 || seq < uint64(p.maxRecords) {
		rec, err := p.next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				slog.Info("pipeline canceled", "source", p.source)
				return nil
			case errors.Is(err, core.ErrStreamClosed):
				slog.Info("stream closed", "source", p.source, "reason", err)
				return nil
			case errors.Is(err, context.DeadlineExceeded):
				return fmt.Errorf("%w: no frame within %s: %w", core.ErrTransport, p.readTimeout, err)
			}
			return err
		}

		seq++
		reading := core.Reading{
			Source:    p.source,
			Seq:       seq,
			Timestamp: p.now(),
			Record:    rec,
		}
		p.metrics.Decoded.Add(1)
		metrics.FramesDecodedTotal.WithLabelValues(p.source).Inc()

		if p.classify {
			p.classifyReading(&reading)
		}

		for _, w := range p.wrappers {
			w.Send(&reading)
		}
	}
	slog.Info("record limit reached", "source", p.source, "max_records", p.maxRecords)
	return nil
}

func (p *Pipeline) next(ctx context.Context) (core.Record, error) {
	if p.readTimeout <= 0 {
		return p.decoder.Next(ctx)
	}
	rctx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()
	return p.decoder.Next(rctx)
}

func (p *Pipeline) classifyReading(r *core.Reading) {
	v, err := core.Classify(r.Record)
	if err != nil {
		p.metrics.Unclassified.Add(1)
		slog.Debug("reading not classified", "source", p.source, "seq", r.Seq, "error", err)
	} else {
		p.metrics.Classified.Add(1)
		r.Variant = v
	}
	metrics.ReadingsClassifiedTotal.WithLabelValues(p.source, r.Kind()).Inc()

	if agg, ok := v.(core.AggregateReading); ok {
		metrics.Attention.WithLabelValues(p.source).Set(float64(agg.Attention))
		metrics.Meditation.WithLabelValues(p.source).Set(float64(agg.Meditation))
		metrics.SignalQuality.WithLabelValues(p.source).Set(float64(agg.SignalQuality))
	}
}

func (p *Pipeline) stopReporters(reporters []plugin.Reporter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range reporters {
		if err := r.Flush(ctx); err != nil {
			slog.Error("reporter flush failed", "reporter", r.Name(), "error", err)
		}
		if err := r.Stop(ctx); err != nil {
			slog.Error("reporter stop failed", "reporter", r.Name(), "error", err)
		}
	}
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	ds := p.decoder.Stats()
	return Stats{
		Frames:           ds.Frames,
		ChecksumFailures: ds.ChecksumFailures,
		InvalidLengths:   ds.InvalidLengths,
		Anomalies:        ds.Anomalies,
		Decoded:          p.metrics.Decoded.Load(),
		Classified:       p.metrics.Classified.Load(),
		Unclassified:     p.metrics.Unclassified.Load(),
		Reported:         p.metrics.Reported.Load(),
		ReportErrors:     p.metrics.ReportErrors.Load(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	Frames           uint64
	ChecksumFailures uint64
	InvalidLengths   uint64
	Anomalies        uint64
	Decoded          uint64
	Classified       uint64
	Unclassified     uint64
	Reported         uint64 // Successful deliveries, summed over reporters
	ReportErrors     uint64
}
