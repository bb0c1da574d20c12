// Package decoder implements the ThinkGear frame decoder: sync search, frame
// extraction with checksum verification, and TLV payload decoding.
package decoder

import (
	"context"
	"iter"
	"sync/atomic"

	"firestige.xyz/thinkgear/internal/core"
)

type state uint8

const (
	stateSync state = iota
	stateReadLength
	stateReadPayload
	stateVerifyChecksum
	stateDecodeTLV
)

func (s state) String() string {
	switch s {
	case stateSync:
		return "sync"
	case stateReadLength:
		return "read_length"
	case stateReadPayload:
		return "read_payload"
	case stateVerifyChecksum:
		return "verify_checksum"
	case stateDecodeTLV:
		return "decode_tlv"
	default:
		return "invalid"
	}
}

// Stats counts decoder outcomes since creation.
type Stats struct {
	Frames           uint64 // Records returned
	ChecksumFailures uint64
	InvalidLengths   uint64
	Anomalies        uint64 // Length anomalies and code events
}

// Decoder turns a ByteStream into Records.
//
// A Decoder owns its stream: it is not safe for concurrent use and nothing
// else may read from the stream while it is in use. Stats may be read from
// any goroutine.
type Decoder struct {
	stream   ByteStream
	observer Observer
	payload  [core.MaxPayloadLength]byte
	err      error

	frames           atomic.Uint64
	checksumFailures atomic.Uint64
	invalidLengths   atomic.Uint64
	anomalies        atomic.Uint64
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithObserver sets the diagnostics observer.
func WithObserver(o Observer) Option {
	return func(d *Decoder) {
		if o != nil {
			d.observer = o
		}
	}
}

// New creates a decoder reading from stream.
func New(stream ByteStream, opts ...Option) *Decoder {
	d := &Decoder{
		stream:   stream,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next decodes the next checksum-valid frame.
//
// Corrupted frames are dropped and reported to the observer; Next only
// returns an error when the stream fails (core.ErrTransport,
// core.ErrStreamClosed, or the context error) or when a payload that passed
// its checksum cannot be walked (core.ErrPayloadOutOfBounds).
func (d *Decoder) Next(ctx context.Context) (core.Record, error) {
	var (
		st     = stateSync
		length int
	)
	for {
		switch st {
		case stateSync:
			if err := d.sync(ctx); err != nil {
				return core.Record{}, err
			}
			st = stateReadLength

		case stateReadLength:
			b, err := d.stream.NextByte(ctx)
			if err != nil {
				return core.Record{}, err
			}
			if b == core.SyncByte {
				// Still in the sync run: read the length again.
				continue
			}
			if b > core.SyncByte {
				d.invalidLengths.Add(1)
				d.observer.Observe(Event{Kind: EventInvalidLength, Got: int(b)})
				st = stateSync
				continue
			}
			length = int(b)
			st = stateReadPayload

		case stateReadPayload:
			if err := d.stream.ReadFull(ctx, d.payload[:length]); err != nil {
				return core.Record{}, err
			}
			st = stateVerifyChecksum

		case stateVerifyChecksum:
			got, err := d.stream.NextByte(ctx)
			if err != nil {
				return core.Record{}, err
			}
			if want := Checksum(d.payload[:length]); want != got {
				d.checksumFailures.Add(1)
				d.observer.Observe(Event{
					Kind:   EventChecksumMismatch,
					Length: length,
					Want:   int(want),
					Got:    int(got),
				})
				st = stateSync
				continue
			}
			st = stateDecodeTLV

		case stateDecodeTLV:
			rec, err := decodePayload(d.payload[:length], d.observe)
			if err != nil {
				return core.Record{}, err
			}
			d.frames.Add(1)
			return rec, nil
		}
	}
}

// sync consumes bytes until two consecutive sync bytes have been read.
// A non-sync byte resets the count.
func (d *Decoder) sync(ctx context.Context) error {
	for seen := 0; seen < 2; {
		b, err := d.stream.NextByte(ctx)
		if err != nil {
			return err
		}
		if b == core.SyncByte {
			seen++
		} else {
			seen = 0
		}
	}
	return nil
}

func (d *Decoder) observe(e Event) {
	d.anomalies.Add(1)
	d.observer.Observe(e)
}

// All yields decoded records until the first error, which is yielded last
// with a zero Record. Stopping the loop early leaves the decoder usable.
func (d *Decoder) All(ctx context.Context) iter.Seq2[core.Record, error] {
	return func(yield func(core.Record, error) bool) {
		for {
			rec, err := d.Next(ctx)
			if err != nil {
				yield(core.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Records is the blocking form of Next: it yields records until the stream
// fails. The terminal error is available from Err afterwards.
func (d *Decoder) Records() iter.Seq[core.Record] {
	return func(yield func(core.Record) bool) {
		for rec, err := range d.All(context.Background()) {
			if err != nil {
				d.err = err
				return
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Err returns the error that ended Records, or nil.
func (d *Decoder) Err() error {
	return d.err
}

// Stats returns a snapshot of the counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		Frames:           d.frames.Load(),
		ChecksumFailures: d.checksumFailures.Load(),
		InvalidLengths:   d.invalidLengths.Load(),
		Anomalies:        d.anomalies.Load(),
	}
}
