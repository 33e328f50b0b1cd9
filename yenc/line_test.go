package yenc

import (
	"bytes"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/go-while/ydecode/yenc/yenctest"
)

func TestDecodeLineSimple(t *testing.T) {
	orig := []byte{0x00, 0x41, 0xFF}
	enc := make([]byte, len(orig))
	for i, b := range orig {
		enc[i] = b + 42
	}
	if got := DecodeLine(nil, enc); !bytes.Equal(got, orig) {
		t.Fatalf("expected %v got %v", orig, got)
	}
}

func TestDecodeLineEscaped(t *testing.T) {
	// 0x13 encodes to '=' and must travel escaped
	got := DecodeLine(nil, []byte{'=', '=' + 64})
	if len(got) != 1 || got[0] != 0x13 {
		t.Fatalf("expected [13] got %x", got)
	}
}

func TestDecodeLineEscapeAtEndIsDropped(t *testing.T) {
	got := DecodeLine(nil, []byte{'k', '='})
	if !bytes.Equal(got, []byte{'k' - 42}) {
		t.Fatalf("got %x", got)
	}
}

func TestDecodeLineAppends(t *testing.T) {
	dst := []byte{1, 2}
	got := DecodeLine(dst, []byte{42 + 3})
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestDecodeLineRoundTrip(t *testing.T) {
	for _, width := range []int{1, 7, 64, 128} {
		data := yenctest.Pattern(width * 40)
		var got []byte
		for _, line := range yenctest.EncodeLines(data, width) {
			got = DecodeLine(got, line)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("width %d: round trip mismatch", width)
		}
	}
}

func TestDecodeTextLine(t *testing.T) {
	data := []byte{0x00, 0x13, 0x7F, 0x80, 0xD5, 0xFF}
	lines := yenctest.EncodeLines(data, 128)
	text, err := charmap.ISO8859_1.NewDecoder().String(string(lines[0]))
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTextLine(text, charmap.ISO8859_1)
	if err != nil {
		t.Fatalf("DecodeTextLine: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("expected %x got %x", data, got)
	}
}
