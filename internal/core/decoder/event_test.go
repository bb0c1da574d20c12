package decoder

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKindResync(t *testing.T) {
	assert.True(t, EventChecksumMismatch.Resync())
	assert.True(t, EventInvalidLength.Resync())
	assert.False(t, EventLengthAnomaly.Resync())
	assert.False(t, EventUnknownCode.Resync())
}

func TestObserversFanOut(t *testing.T) {
	var a, b []EventKind
	obs := Observers{
		ObserverFunc(func(e Event) { a = append(a, e.Kind) }),
		nil,
		ObserverFunc(func(e Event) { b = append(b, e.Kind) }),
	}
	obs.Observe(Event{Kind: EventSyncCode})

	assert.Equal(t, []EventKind{EventSyncCode}, a)
	assert.Equal(t, []EventKind{EventSyncCode}, b)
}

func TestLogObserverLevels(t *testing.T) {
	var buf bytes.Buffer
	l := &LogObserver{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))}

	l.Observe(Event{Kind: EventChecksumMismatch, Want: 0x10, Got: 0x11, Length: 4})
	l.Observe(Event{Kind: EventUnknownCode, Code: 0x99})
	l.Observe(Event{Kind: EventLengthAnomaly, Code: 0x80, Got: 3, Want: 2})

	out := buf.String()
	assert.Contains(t, out, "checksum mismatch")
	assert.Contains(t, out, "expected=16 got=17")
	assert.Contains(t, out, "code=raw_wave")
	assert.NotContains(t, out, "payload code without value")
}

func TestLogObserverDebug(t *testing.T) {
	var buf bytes.Buffer
	l := &LogObserver{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Observe(Event{Kind: EventUnknownCode, Code: 0x99, Offset: 3})
	l.Observe(Event{Kind: EventInvalidLength, Got: 200})

	out := buf.String()
	assert.Contains(t, out, "kind=unknown_code")
	assert.Contains(t, out, "offset=3")
	assert.Contains(t, out, "length=200")
}
