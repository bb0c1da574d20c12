package decoder

import (
	"fmt"

	"firestige.xyz/thinkgear/internal/core"
)

// Checksum returns the one's complement of the low byte of the payload sum.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return ^sum
}

// EncodeFrame wraps a payload in sync bytes, length and checksum.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > core.MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", core.ErrFrameTooLong, len(payload))
	}
	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, core.SyncByte, core.SyncByte, byte(len(payload)))
	frame = append(frame, payload...)
	return append(frame, Checksum(payload)), nil
}

// PayloadBuilder assembles TLV items for a frame payload.
type PayloadBuilder struct {
	buf []byte
}

// SignalQuality appends a signal quality item.
func (b *PayloadBuilder) SignalQuality(v uint8) *PayloadBuilder {
	b.buf = append(b.buf, byte(core.CodeSignalQuality), v)
	return b
}

// Attention appends an attention item.
func (b *PayloadBuilder) Attention(v uint8) *PayloadBuilder {
	b.buf = append(b.buf, byte(core.CodeAttention), v)
	return b
}

// Meditation appends a meditation item.
func (b *PayloadBuilder) Meditation(v uint8) *PayloadBuilder {
	b.buf = append(b.buf, byte(core.CodeMeditation), v)
	return b
}

// RawWave appends a raw wave item.
func (b *PayloadBuilder) RawWave(v int16) *PayloadBuilder {
	b.buf = append(b.buf, byte(core.CodeRawWave), core.RawWaveLength, byte(uint16(v)>>8), byte(v))
	return b
}

// Power appends a power bands item. Values are truncated to 24 bits.
func (b *PayloadBuilder) Power(p core.PowerBands) *PayloadBuilder {
	b.buf = append(b.buf, byte(core.CodePowerBands), core.PowerBandsLength)
	for _, v := range p.Values() {
		b.buf = append(b.buf, byte(v>>16), byte(v>>8), byte(v))
	}
	return b
}

// Raw appends bytes verbatim.
func (b *PayloadBuilder) Raw(p ...byte) *PayloadBuilder {
	b.buf = append(b.buf, p...)
	return b
}

// Bytes returns the payload built so far.
func (b *PayloadBuilder) Bytes() []byte {
	return b.buf
}

// Frame encodes the payload built so far as a frame.
func (b *PayloadBuilder) Frame() ([]byte, error) {
	return EncodeFrame(b.buf)
}
