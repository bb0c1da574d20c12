package decoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"firestige.xyz/thinkgear/internal/core"
)

// ByteStream is the source a Decoder reads from. Both methods may block until
// data arrives, and must return an error wrapping core.ErrTransport or
// core.ErrStreamClosed on failure.
type ByteStream interface {
	NextByte(ctx context.Context) (byte, error)
	ReadFull(ctx context.Context, p []byte) error
}

// deadliner is implemented by net.Conn and *os.File.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

const defaultStreamBufferSize = 4096

// ReaderStream adapts an io.Reader into a ByteStream.
//
// Reads check the context before touching the reader. When the reader
// supports read deadlines, a blocked read is also interrupted by context
// cancellation and bounded by the context deadline; plain readers can only
// be stopped between reads.
type ReaderStream struct {
	br       *bufio.Reader
	dl       deadliner
	deadline time.Time
}

// StreamOption configures a ReaderStream.
type StreamOption func(*streamOptions)

type streamOptions struct {
	bufSize int
}

// WithBufferSize sets the read buffer size.
func WithBufferSize(n int) StreamOption {
	return func(o *streamOptions) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// NewReaderStream wraps r.
func NewReaderStream(r io.Reader, opts ...StreamOption) *ReaderStream {
	o := streamOptions{bufSize: defaultStreamBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	s := &ReaderStream{br: bufio.NewReaderSize(r, o.bufSize)}
	if dl, ok := r.(deadliner); ok {
		s.dl = dl
	}
	return s
}

// NextByte implements ByteStream.
func (s *ReaderStream) NextByte(ctx context.Context) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.br.Buffered() > 0 {
		b, _ := s.br.ReadByte()
		return b, nil
	}

	stop := s.arm(ctx)
	b, err := s.br.ReadByte()
	stop()
	if err != nil {
		return 0, s.wrap(ctx, err)
	}
	return b, nil
}

// ReadFull implements ByteStream.
func (s *ReaderStream) ReadFull(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if s.br.Buffered() >= len(p) {
		_, _ = io.ReadFull(s.br, p)
		return nil
	}

	stop := s.arm(ctx)
	_, err := io.ReadFull(s.br, p)
	stop()
	if err != nil {
		return s.wrap(ctx, err)
	}
	return nil
}

// arm ties the underlying reader's deadline to ctx for the duration of one read.
func (s *ReaderStream) arm(ctx context.Context) func() {
	if s.dl == nil {
		return func() {}
	}
	deadline, _ := ctx.Deadline()
	if !deadline.Equal(s.deadline) {
		_ = s.dl.SetReadDeadline(deadline)
		s.deadline = deadline
	}
	if ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	unregister := context.AfterFunc(ctx, func() {
		_ = s.dl.SetReadDeadline(time.Unix(1, 0))
		close(fired)
	})
	return func() {
		if !unregister() {
			<-fired
			s.deadline = time.Unix(1, 0)
		}
	}
}

func (s *ReaderStream) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", core.ErrStreamClosed, err)
	}
	return fmt.Errorf("%w: %w", core.ErrTransport, err)
}
