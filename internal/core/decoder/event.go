package decoder

import (
	"context"
	"log/slog"

	"firestige.xyz/thinkgear/internal/core"
)

// EventKind names a diagnostic raised while decoding.
type EventKind string

const (
	// Resync conditions: the frame is dropped and the decoder looks for the next sync.
	EventChecksumMismatch EventKind = "checksum_mismatch"
	EventInvalidLength    EventKind = "invalid_length"

	// Structural anomalies inside a checksum-valid payload: decoding continues.
	EventLengthAnomaly EventKind = "length_anomaly"
	EventExtendedCode  EventKind = "extended_code"
	EventSyncCode      EventKind = "sync_code"
	EventUnknownCode   EventKind = "unknown_code"
)

// Resync reports whether the event dropped a frame.
func (k EventKind) Resync() bool {
	return k == EventChecksumMismatch || k == EventInvalidLength
}

// Event is one diagnostic. Fields that do not apply to the kind are zero.
type Event struct {
	Kind   EventKind
	Code   byte // Raw code byte (payload events)
	Offset int  // Offset of the code byte inside the payload
	Length int  // Payload length (checksum) or declared value length (anomaly)
	Want   int  // Expected checksum or value length
	Got    int  // Received checksum, length byte or value length
}

// Observer receives decoder diagnostics. Observe is called synchronously from
// the decoding goroutine and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to several observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// LogObserver writes events to a slog.Logger. Resync events and length
// anomalies are logged at warn level, code events at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns a LogObserver on slog.Default() tagged with source.
func NewLogObserver(source string) *LogObserver {
	return &LogObserver{Logger: slog.Default().With("source", source)}
}

// Observe implements Observer.
func (l *LogObserver) Observe(e Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch e.Kind {
	case EventChecksumMismatch:
		logger.Warn("checksum mismatch, resyncing",
			"expected", e.Want, "got", e.Got, "payload_len", e.Length)
	case EventInvalidLength:
		logger.Debug("invalid payload length, resyncing", "length", e.Got)
	case EventLengthAnomaly:
		logger.Warn("unexpected value length, decoding fixed width",
			"code", core.CodeOf(e.Code).String(), "offset", e.Offset,
			"declared", e.Got, "expected", e.Want)
	default:
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug("payload code without value",
			"kind", string(e.Kind), "code", e.Code, "offset", e.Offset)
	}
}
