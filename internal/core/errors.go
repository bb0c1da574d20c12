// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors, wrapped with %w and matched with errors.Is.
var (
	// Stream errors, terminal for a decoder
	ErrTransport    = errors.New("thinkgear: transport error")
	ErrStreamClosed = errors.New("thinkgear: stream closed")

	// Payload decoding errors
	ErrPayloadOutOfBounds = errors.New("thinkgear: payload read out of bounds")
	ErrFrameTooLong       = errors.New("thinkgear: payload exceeds maximum frame length")

	// Classification errors
	ErrUnclassifiable = errors.New("thinkgear: no recognized complete shape")

	// Configuration errors
	ErrConfigInvalid   = errors.New("thinkgear: invalid configuration")
	ErrUnknownSource   = errors.New("thinkgear: unknown source type")
	ErrUnknownReporter = errors.New("thinkgear: unknown reporter type")
)
