package proto

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	// Handshake is the literal first frame a client sends.
	Handshake = "MojaChat"
	// Terminator ends every frame in both directions.
	Terminator byte = 0x00

	// DefaultMaxFrameBytes bounds a single inbound frame.
	DefaultMaxFrameBytes = 16 << 10
)

var ErrFrameTooLarge = errors.New("frame too large")

// FrameReader splits a byte stream into NUL-terminated frames.
type FrameReader struct {
	br  *bufio.Reader
	max int
	buf []byte
}

// NewFrameReader wraps r. maxBytes <= 0 falls back to DefaultMaxFrameBytes.
func NewFrameReader(r io.Reader, maxBytes int) *FrameReader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	return &FrameReader{br: bufio.NewReader(r), max: maxBytes}
}

// ReadFrame returns the next frame without its terminator. Bytes left without a
// terminator when the stream ends are discarded and io.EOF is returned.
// ErrFrameTooLarge leaves the stream unusable.
func (r *FrameReader) ReadFrame() ([]byte, error) {
	r.buf = r.buf[:0]
	for {
		chunk, err := r.br.ReadSlice(Terminator)
		r.buf = append(r.buf, chunk...)
		if len(r.buf) > r.max+1 {
			return nil, ErrFrameTooLarge
		}
		switch {
		case err == nil:
			return bytes.Clone(r.buf[:len(r.buf)-1]), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}

// WriteFrame writes payload followed by the terminator.
func WriteFrame(w io.Writer, payload []byte) error {
	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, payload...)
	frame = append(frame, Terminator)
	_, err := w.Write(frame)
	return err
}
