package yenc

import (
	"errors"
	"fmt"
	"io"
)

var errNegativeOffset = errors.New("yenc: negative buffer offset")

// Buffer is an in-memory io.WriteSeeker. Writes may land at any offset; the
// buffer grows as needed and gaps read as zero bytes until written. It never
// grows past its limit (DefaultMaxSize when zero).
type Buffer struct {
	buf   []byte
	pos   int64
	limit int64
}

// NewBuffer returns a Buffer holding data, positioned at offset 0.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{buf: data}
}

func (b *Buffer) Write(p []byte) (int, error) {
	n, err := b.WriteAt(p, b.pos)
	b.pos += int64(n)
	return n, err
}

// WriteAt writes p at off without moving the position.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	end := off + int64(len(p))
	if end < off || end > b.maxSize() {
		return 0, fmt.Errorf("%w: write up to %d, limit %d", ErrTooLarge, end, b.maxSize())
	}
	if end > int64(len(b.buf)) {
		if end > int64(cap(b.buf)) {
			grown := make([]byte, end, max(end, 2*int64(cap(b.buf))))
			copy(grown, b.buf)
			b.buf = grown
		} else {
			n := len(b.buf)
			b.buf = b.buf[:end]
			clear(b.buf[n:])
		}
	}
	return copy(b.buf[off:], p), nil
}

func (b *Buffer) maxSize() int64 {
	if b.limit > 0 {
		return b.limit
	}
	return DefaultMaxSize
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// ReadAt reads from off without moving the position.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativeOffset
	}
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("yenc: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	b.pos = abs
	return abs, nil
} // end func Seek

// Len returns the buffer size, independent of the position.
func (b *Buffer) Len() int64 { return int64(len(b.buf)) }

// Bytes returns the whole buffer. It aliases the buffer contents.
func (b *Buffer) Bytes() []byte { return b.buf }

// WriteTo writes the unread part of the buffer to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	if b.pos >= int64(len(b.buf)) {
		return 0, nil
	}
	n, err := w.Write(b.buf[b.pos:])
	b.pos += int64(n)
	return int64(n), err
}
