// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/thinkgear/internal/core/decoder"
)

var (
	// FramesDecodedTotal counts checksum-valid frames by source
	FramesDecodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkgear_frames_decoded_total",
			Help: "Total number of checksum-valid frames decoded",
		},
		[]string{"source"},
	)

	// DecoderEventsTotal counts decoder diagnostics (resyncs and payload anomalies) by kind
	DecoderEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkgear_decoder_events_total",
			Help: "Total number of decoder diagnostics by kind",
		},
		[]string{"source", "kind"},
	)

	// ReadingsClassifiedTotal counts readings by classified variant ("none" when unclassifiable)
	ReadingsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkgear_readings_classified_total",
			Help: "Total number of readings by classified variant",
		},
		[]string{"source", "variant"},
	)

	// ReporterErrorsTotal counts reporter failures by reporter name and stage (report|batch|fallback)
	ReporterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkgear_reporter_errors_total",
			Help: "Total number of reporter errors",
		},
		[]string{"source", "reporter", "stage"},
	)

	// ReporterBatchSize observes how many readings each delivery carries
	ReporterBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thinkgear_reporter_batch_size",
			Help:    "Readings per reporter delivery",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"source", "reporter"},
	)

	// Attention and Meditation track the latest eSense values
	Attention = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thinkgear_attention",
			Help: "Latest attention eSense value (0-100)",
		},
		[]string{"source"},
	)
	Meditation = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thinkgear_meditation",
			Help: "Latest meditation eSense value (0-100)",
		},
		[]string{"source"},
	)

	// SignalQuality tracks the latest poor-signal value (0 = good contact, 200 = off-head)
	SignalQuality = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thinkgear_signal_quality",
			Help: "Latest poor signal value (0-255, 0 is best)",
		},
		[]string{"source"},
	)
)

// Observer counts decoder events for one source.
type Observer struct {
	source string
}

// NewObserver returns an Observer labelling events with source.
func NewObserver(source string) *Observer {
	return &Observer{source: source}
}

// Observe implements decoder.Observer.
func (o *Observer) Observe(e decoder.Event) {
	DecoderEventsTotal.WithLabelValues(o.source, string(e.Kind)).Inc()
}
