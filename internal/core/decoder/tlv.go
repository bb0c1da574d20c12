package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/thinkgear/internal/core"
)

// cursor walks a payload and refuses to read past its end.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) more() bool {
	return c.pos < len(c.buf)
}

func (c *cursor) next() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, fmt.Errorf("%w: need 1 byte at offset %d of %d",
			core.ErrPayloadOutOfBounds, c.pos, len(c.buf))
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if n > len(c.buf)-c.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d of %d",
			core.ErrPayloadOutOfBounds, n, c.pos, len(c.buf))
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// decodePayload walks the TLV items of a checksum-valid payload.
//
// The value length declared by raw wave and power band items is informational:
// a mismatch is reported and the fixed width is decoded anyway, which is how
// headset firmware has been observed to behave. This can hide protocol drift.
func decodePayload(payload []byte, observe func(Event)) (core.Record, error) {
	var rec core.Record
	c := cursor{buf: payload}

	for c.more() {
		offset := c.pos
		raw, _ := c.next()
		code := core.CodeOf(raw)

		switch code {
		case core.CodeSignalQuality, core.CodeAttention, core.CodeMeditation:
			v, err := c.next()
			if err != nil {
				return core.Record{}, fmt.Errorf("decode %s: %w", code, err)
			}
			switch code {
			case core.CodeSignalQuality:
				rec.SignalQuality = &v
			case core.CodeAttention:
				rec.Attention = &v
			default:
				rec.Meditation = &v
			}

		case core.CodeRawWave:
			value, err := fixedValue(&c, code, raw, offset, core.RawWaveLength, observe)
			if err != nil {
				return core.Record{}, err
			}
			w := int16(binary.BigEndian.Uint16(value))
			rec.RawWave = &w

		case core.CodePowerBands:
			value, err := fixedValue(&c, code, raw, offset, core.PowerBandsLength, observe)
			if err != nil {
				return core.Record{}, err
			}
			p := core.PowerBandsFromBytes(value)
			rec.Power = &p

		case core.CodeExtended:
			observe(Event{Kind: EventExtendedCode, Code: raw, Offset: offset})
		case core.CodeSync:
			observe(Event{Kind: EventSyncCode, Code: raw, Offset: offset})
		default:
			observe(Event{Kind: EventUnknownCode, Code: raw, Offset: offset})
		}
	}
	return rec, nil
}

// fixedValue reads the length byte of a multi-byte item and then exactly
// width value bytes, whatever length was declared.
func fixedValue(c *cursor, code core.Code, raw byte, offset, width int, observe func(Event)) ([]byte, error) {
	declared, err := c.next()
	if err != nil {
		return nil, fmt.Errorf("decode %s length: %w", code, err)
	}
	if int(declared) != width {
		observe(Event{
			Kind:   EventLengthAnomaly,
			Code:   raw,
			Offset: offset,
			Length: int(declared),
			Want:   width,
			Got:    int(declared),
		})
	}
	value, err := c.take(width)
	if err != nil {
		return nil, fmt.Errorf("decode %s value: %w", code, err)
	}
	return value, nil
}
