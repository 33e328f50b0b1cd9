package yenc

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestBufferWriteSeek(t *testing.T) {
	b := &Buffer{}
	if _, err := b.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("efgh"))
	b.Seek(0, io.SeekStart)
	b.Write([]byte("ab"))
	if got := b.Bytes(); !bytes.Equal(got, []byte("ab\x00\x00efgh")) {
		t.Fatalf("unexpected %q", got)
	}
	if pos, _ := b.Seek(0, io.SeekCurrent); pos != 2 {
		t.Fatalf("expected position 2, got %d", pos)
	}
	if pos, _ := b.Seek(-1, io.SeekEnd); pos != 7 {
		t.Fatalf("expected position 7, got %d", pos)
	}
}

func TestBufferGapIsZeroedWithinCapacity(t *testing.T) {
	b := NewBuffer(make([]byte, 2, 16))
	copy(b.buf[:16], bytes.Repeat([]byte{0xff}, 16))
	b.WriteAt([]byte("x"), 8)
	if got := b.Bytes(); !bytes.Equal(got, []byte("\xff\xff\x00\x00\x00\x00\x00\x00x")) {
		t.Fatalf("unexpected %q", got)
	}
}

func TestBufferRead(t *testing.T) {
	b := NewBuffer([]byte("hello"))
	got, err := io.ReadAll(b)
	if err != nil || string(got) != "hello" {
		t.Fatalf("ReadAll: %q %v", got, err)
	}
	b.Seek(1, io.SeekStart)
	var out bytes.Buffer
	if n, err := b.WriteTo(&out); err != nil || n != 4 || out.String() != "ello" {
		t.Fatalf("WriteTo: %d %q %v", n, out.String(), err)
	}
}

func TestBufferNegativeOffset(t *testing.T) {
	b := &Buffer{}
	if _, err := b.Seek(-1, io.SeekStart); !errors.Is(err, errNegativeOffset) {
		t.Fatalf("expected errNegativeOffset, got %v", err)
	}
	if _, err := b.WriteAt([]byte("a"), -1); !errors.Is(err, errNegativeOffset) {
		t.Fatalf("expected errNegativeOffset, got %v", err)
	}
}

func TestBufferReadAt(t *testing.T) {
	b := NewBuffer([]byte("0123456789"))
	p := make([]byte, 4)
	if n, err := b.ReadAt(p, 3); n != 4 || err != nil || string(p) != "3456" {
		t.Fatalf("ReadAt: %d %q %v", n, p, err)
	}
	if n, err := b.ReadAt(p, 8); n != 2 || err != io.EOF {
		t.Fatalf("short ReadAt: %d %v", n, err)
	}
	if pos, _ := b.Seek(0, io.SeekCurrent); pos != 0 {
		t.Fatalf("ReadAt moved the position to %d", pos)
	}
}

func TestBufferLimit(t *testing.T) {
	b := &Buffer{}
	if _, err := b.WriteAt([]byte("x"), 1<<50); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := b.WriteAt([]byte("xy"), math.MaxInt64); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge on overflow, got %v", err)
	}
	b = &Buffer{limit: 4}
	if _, err := b.Write([]byte("abcd")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Write([]byte("e")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge past limit, got %v", err)
	}
	if b.Len() != 4 {
		t.Fatalf("expected 4 bytes, got %d", b.Len())
	}
}
