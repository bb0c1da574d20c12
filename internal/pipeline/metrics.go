package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-pipeline counters.
type Metrics struct {
	Source string

	Decoded      atomic.Uint64
	Classified   atomic.Uint64
	Unclassified atomic.Uint64
	Reported     atomic.Uint64 // Successful deliveries, summed over reporters
	ReportErrors atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics(source string) *Metrics {
	return &Metrics{Source: source}
}
