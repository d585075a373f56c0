package input

import (
	"context"
	"io"
	"time"

	"github.com/cjeanneret/microscopy/internal/debug"
)

// Stream pumps bytes from a reader into a channel so that they can be read
// with a deadline. The terminal source and the terminal dialogs share one
// Stream; they never read at the same time because dialogs are modal.
type Stream struct {
	c   chan byte
	err error
}

// NewStream starts reading r in the background.
func NewStream(r io.Reader) *Stream {
	s := &Stream{c: make(chan byte, 256)}
	go s.pump(r)
	return s
}

func (s *Stream) pump(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			debug.Trace("stdin byte 0x%02x", b)
			s.c <- b
		}
		if err != nil {
			s.err = err
			close(s.c)
			return
		}
	}
}

// ReadByte blocks until a byte arrives or ctx is done. It returns the reader's
// error (usually io.EOF) once the input is exhausted.
func (s *Stream) ReadByte(ctx context.Context) (byte, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b, ok := <-s.c:
		if !ok {
			return 0, s.err
		}
		return b, nil
	}
}

// ReadByteWithin returns the next byte if one arrives within d.
func (s *Stream) ReadByteWithin(d time.Duration) (byte, bool) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case b, ok := <-s.c:
		return b, ok
	case <-t.C:
		return 0, false
	}
}

// Drain discards bytes already buffered.
func (s *Stream) Drain() {
	for {
		select {
		case _, ok := <-s.c:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
