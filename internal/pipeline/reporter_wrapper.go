package pipeline

import (
	"context"
	"log/slog"
	"time"

	"firestige.xyz/thinkgear/internal/core"
	"firestige.xyz/thinkgear/internal/metrics"
	"firestige.xyz/thinkgear/pkg/plugin"
)

const (
	defaultWrapperBatchSize    = 64
	defaultWrapperBatchTimeout = 50 * time.Millisecond
	defaultWrapperChanCap      = 4096
)

// ReporterWrapper queues readings for one reporter and delivers them in
// batches, handing failed readings to an optional fallback:
//
//	decodeLoop → ReporterWrapper.Send() → batchLoop → Reporter.ReportBatch()/Report()
//	                                                 └→ fallback Reporter (on primary failure)
//
// Each reporter gets its own wrapper, so a slow reporter only delays itself
// until its queue is full.
type ReporterWrapper struct {
	reporter plugin.Reporter
	fallback plugin.Reporter // nil if no fallback configured
	source   string          // for Prometheus labels
	counters *Metrics

	batchSize    int
	batchTimeout time.Duration

	batchCh chan *core.Reading
	doneCh  chan struct{}
}

// WrapperConfig contains configuration for creating a ReporterWrapper.
type WrapperConfig struct {
	Reporter     plugin.Reporter
	Fallback     plugin.Reporter // nil if no fallback
	Source       string
	Metrics      *Metrics // optional, receives Reported / ReportErrors
	BatchSize    int
	BatchTimeout time.Duration
	QueueSize    int
}

// NewReporterWrapper creates a new wrapper around a Reporter.
func NewReporterWrapper(cfg WrapperConfig) *ReporterWrapper {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultWrapperBatchSize
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultWrapperBatchTimeout
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultWrapperChanCap
	}
	counters := cfg.Metrics
	if counters == nil {
		counters = NewMetrics(cfg.Source)
	}

	return &ReporterWrapper{
		reporter:     cfg.Reporter,
		fallback:     cfg.Fallback,
		source:       cfg.Source,
		counters:     counters,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		batchCh:      make(chan *core.Reading, queueSize),
		doneCh:       make(chan struct{}),
	}
}

// Start starts the batchLoop goroutine. It does not start the reporter itself.
func (w *ReporterWrapper) Start(ctx context.Context) {
	go w.batchLoop(ctx)
}

// Send enqueues a reading. It blocks while the queue is full.
func (w *ReporterWrapper) Send(r *core.Reading) {
	w.batchCh <- r
}

// Close closes the queue and waits until every pending reading is delivered.
func (w *ReporterWrapper) Close() {
	close(w.batchCh)
	<-w.doneCh
}

// batchLoop collects readings into batches and flushes on size or timeout.
func (w *ReporterWrapper) batchLoop(ctx context.Context) {
	defer close(w.doneCh)

	batch := make([]*core.Reading, 0, w.batchSize)
	ticker := time.NewTicker(w.batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.sendBatch(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case r, ok := <-w.batchCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, r)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// sendBatch delivers a batch through ReportBatch when the reporter supports
// it, otherwise through one Report call per reading. Readings the primary
// fails to deliver go to the fallback.
func (w *ReporterWrapper) sendBatch(ctx context.Context, batch []*core.Reading) {
	name := w.reporter.Name()
	metrics.ReporterBatchSize.WithLabelValues(w.source, name).Observe(float64(len(batch)))

	if br, ok := w.reporter.(plugin.BatchReporter); ok {
		if err := br.ReportBatch(ctx, batch); err != nil {
			metrics.ReporterErrorsTotal.WithLabelValues(w.source, name, "batch").Inc()
			w.counters.ReportErrors.Add(uint64(len(batch)))
			slog.Warn("primary reporter batch failed",
				"reporter", name,
				"batch_size", len(batch),
				"first_seq", batch[0].Seq,
				"error", err)
			w.sendFallback(ctx, batch)
			return
		}
		w.counters.Reported.Add(uint64(len(batch)))
		return
	}

	var failed []*core.Reading
	for _, r := range batch {
		if err := w.reporter.Report(ctx, r); err != nil {
			metrics.ReporterErrorsTotal.WithLabelValues(w.source, name, "report").Inc()
			w.counters.ReportErrors.Add(1)
			slog.Error("reporter failed", "reporter", name, "seq", r.Seq, "error", err)
			failed = append(failed, r)
			continue
		}
		w.counters.Reported.Add(1)
	}
	w.sendFallback(ctx, failed)
}

// sendFallback reports readings one by one to the fallback reporter.
func (w *ReporterWrapper) sendFallback(ctx context.Context, readings []*core.Reading) {
	if w.fallback == nil || len(readings) == 0 {
		return
	}
	name := w.fallback.Name()
	for _, r := range readings {
		if err := w.fallback.Report(ctx, r); err != nil {
			metrics.ReporterErrorsTotal.WithLabelValues(w.source, name, "fallback").Inc()
			slog.Warn("fallback reporter also failed", "reporter", name, "seq", r.Seq, "error", err)
			continue
		}
		w.counters.Reported.Add(1)
	}
}
