// Package core defines core types with zero external dependencies.
package core

import "fmt"

// Wire constants of the ThinkGear serial protocol.
const (
	SyncByte         = 0xAA // Both bytes of the frame header
	MaxPayloadLength = 169  // Largest length byte accepted (SyncByte - 1)

	RawWaveLength    = 2  // Value bytes behind a raw wave code
	PowerBandsLength = 24 // Value bytes behind a power bands code (8 x uint24)
)

// Code identifies the kind of datum at a TLV position of a payload.
type Code uint8

const (
	CodeUnknown       Code = 0x00 // Any byte value not listed below
	CodeSignalQuality Code = 0x02 // 1 byte, 0 = good contact, 200 = off-head
	CodeAttention     Code = 0x04 // 1 byte, eSense 0~100
	CodeMeditation    Code = 0x05 // 1 byte, eSense 0~100
	CodeExtended      Code = 0x55 // Extended code level, no defined payload
	CodeRawWave       Code = 0x80 // length + int16 big endian
	CodePowerBands    Code = 0x83 // length + 8 x uint24 big endian
	CodeSync          Code = 0xAA // Sync byte seen inside a payload
)

// CodeOf classifies a payload byte. Every byte value maps to some Code.
func CodeOf(b byte) Code {
	switch Code(b) {
	case CodeSignalQuality, CodeAttention, CodeMeditation,
		CodeExtended, CodeRawWave, CodePowerBands, CodeSync:
		return Code(b)
	default:
		return CodeUnknown
	}
}

// SingleByte reports whether the code carries exactly one value byte and no length byte.
func (c Code) SingleByte() bool {
	return c == CodeSignalQuality || c == CodeAttention || c == CodeMeditation
}

// MultiByte reports whether the code is followed by a length byte.
func (c Code) MultiByte() bool {
	return c == CodeRawWave || c == CodePowerBands
}

func (c Code) String() string {
	switch c {
	case CodeSignalQuality:
		return "signal_quality"
	case CodeAttention:
		return "attention"
	case CodeMeditation:
		return "meditation"
	case CodeExtended:
		return "extended"
	case CodeRawWave:
		return "raw_wave"
	case CodePowerBands:
		return "power_bands"
	case CodeSync:
		return "sync"
	case CodeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("code(0x%02x)", uint8(c))
	}
}

// PowerBands holds the eight ASIC EEG band magnitudes of one frame.
// Values are 24-bit on the wire, the top byte is always zero.
type PowerBands struct {
	Delta     uint32 `json:"delta" yaml:"delta"`           // 0.5 ~ 2.75 Hz
	Theta     uint32 `json:"theta" yaml:"theta"`           // 3.5 ~ 6.75 Hz
	LowAlpha  uint32 `json:"low_alpha" yaml:"low_alpha"`   // 7.5 ~ 9.25 Hz
	HighAlpha uint32 `json:"high_alpha" yaml:"high_alpha"` // 10 ~ 11.75 Hz
	LowBeta   uint32 `json:"low_beta" yaml:"low_beta"`     // 13 ~ 16.75 Hz
	HighBeta  uint32 `json:"high_beta" yaml:"high_beta"`   // 18 ~ 29.75 Hz
	LowGamma  uint32 `json:"low_gamma" yaml:"low_gamma"`   // 31 ~ 39.75 Hz
	MidGamma  uint32 `json:"mid_gamma" yaml:"mid_gamma"`   // 41 ~ 49.75 Hz
}

// PowerBandsFromBytes decodes eight consecutive 3-byte big endian groups.
// b must hold at least PowerBandsLength bytes.
func PowerBandsFromBytes(b []byte) PowerBands {
	_ = b[PowerBandsLength-1]
	u24 := func(i int) uint32 {
		return uint32(b[i])<<16 | uint32(b[i+1])<<8 | uint32(b[i+2])
	}
	return PowerBands{
		Delta:     u24(0),
		Theta:     u24(3),
		LowAlpha:  u24(6),
		HighAlpha: u24(9),
		LowBeta:   u24(12),
		HighBeta:  u24(15),
		LowGamma:  u24(18),
		MidGamma:  u24(21),
	}
}

// Values returns the bands in wire order.
func (p PowerBands) Values() [8]uint32 {
	return [8]uint32{p.Delta, p.Theta, p.LowAlpha, p.HighAlpha, p.LowBeta, p.HighBeta, p.LowGamma, p.MidGamma}
}

// Record is one decoded frame. A nil field was not present in the frame.
type Record struct {
	SignalQuality *uint8      `json:"signal_quality,omitempty" yaml:"signal_quality,omitempty"`
	Attention     *uint8      `json:"attention,omitempty" yaml:"attention,omitempty"`
	Meditation    *uint8      `json:"meditation,omitempty" yaml:"meditation,omitempty"`
	RawWave       *int16      `json:"raw_wave,omitempty" yaml:"raw_wave,omitempty"`
	Power         *PowerBands `json:"power,omitempty" yaml:"power,omitempty"`
}

// IsEmpty reports whether no field is present.
func (r Record) IsEmpty() bool {
	return r.SignalQuality == nil && r.Attention == nil && r.Meditation == nil &&
		r.RawWave == nil && r.Power == nil
}
