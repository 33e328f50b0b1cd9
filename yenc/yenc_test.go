package yenc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/charmap"

	"github.com/go-while/ydecode/yenc/yenctest"
)

func readers(articles [][]byte) []io.Reader {
	rs := make([]io.Reader, len(articles))
	for i, a := range articles {
		rs[i] = bytes.NewReader(a)
	}
	return rs
}

func TestShouldAssembleMultiPartFile(t *testing.T) {
	want := joystick()
	articles := [][]byte{
		yenctest.MultiPart("joystick.jpg", want, 1, 2, 1, 11250, 128),
		yenctest.MultiPart("joystick.jpg", want, 2, 2, 11251, joystickSize, 128),
	}
	file, err := Decode(context.Background(), readers(articles)...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if file.Name != "joystick.jpg" {
		t.Fatalf("unexpected name %q", file.Name)
	}
	if file.Len() != joystickSize || !bytes.Equal(file.Bytes(), want) {
		t.Fatalf("assembled file mismatch, len %d", file.Len())
	}
	got, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("expected the file positioned at offset 0")
	}
}

func TestShouldAssembleInAnyOrder(t *testing.T) {
	want := yenctest.Pattern(100_000)
	articles := yenctest.Split("big.bin", want, 7_000)

	forward, err := Decode(context.Background(), readers(articles)...)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	reversed := slices.Clone(articles)
	slices.Reverse(reversed)
	backward, err := Decode(context.Background(), readers(reversed)...)
	if err != nil {
		t.Fatalf("reversed: %v", err)
	}
	if !bytes.Equal(forward.Bytes(), want) || !bytes.Equal(backward.Bytes(), want) {
		t.Fatal("assembled file mismatch")
	}
}

func TestDecodeSinglePartFile(t *testing.T) {
	want := yenctest.Pattern(3000)
	file, err := Decode(context.Background(), bytes.NewReader(yenctest.SinglePart("single.bin", want, 128)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if file.Name != "single.bin" || !bytes.Equal(file.Bytes(), want) {
		t.Fatal("decoded file mismatch")
	}
}

func TestDecodeNoSources(t *testing.T) {
	file, err := NewDecoder().Decode(context.Background(), nil)
	if err != nil || file != nil {
		t.Fatalf("expected nil, nil; got %v, %v", file, err)
	}
}

func TestDecodeNameFromFirstHeader(t *testing.T) {
	data := yenctest.Pattern(200)
	articles := [][]byte{
		yenctest.MultiPart("first.bin", data, 1, 2, 1, 100, 64),
		yenctest.MultiPart("second.bin", data, 2, 2, 101, 200, 64),
	}
	file, err := Decode(context.Background(), readers(articles)...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if file.Name != "first.bin" {
		t.Fatalf("expected first.bin, got %q", file.Name)
	}
}

func TestDecodeGapReadsAsZero(t *testing.T) {
	data := yenctest.Pattern(300)
	file, err := Decode(context.Background(), bytes.NewReader(yenctest.MultiPart("gap.bin", data, 3, 3, 201, 300, 64)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if file.Len() != 300 {
		t.Fatalf("expected 300 bytes, got %d", file.Len())
	}
	if !bytes.Equal(file.Bytes()[:200], make([]byte, 200)) || !bytes.Equal(file.Bytes()[200:], data[200:]) {
		t.Fatal("unexpected content")
	}
}

func TestDecodeModeErrors(t *testing.T) {
	data := yenctest.Pattern(200)
	single := yenctest.SinglePart("a.bin", data, 128)
	part := yenctest.MultiPart("a.bin", data, 1, 2, 1, 100, 128)
	farOffset := []byte("=ybegin part=1 total=1 line=128 size=1 name=far.bin\r\n" +
		"=ypart begin=1125899906842624 end=1125899906842624\r\n" +
		"k\r\n" +
		"=yend size=1 part=1\r\n")

	tests := []struct {
		name     string
		articles [][]byte
		want     error
	}{
		{"single after part", [][]byte{part, single}, ErrUnexpectedSinglePartFile},
		{"part after single", [][]byte{single, part}, ErrUnexpectedFilePart},
		{"two singles", [][]byte{single, single}, ErrDuplicateSinglePartFile},
		{"bad second source", [][]byte{part, []byte("garbage\r\n")}, ErrFormat},
		{"part offset past file", [][]byte{farOffset}, ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Decode(context.Background(), readers(tt.articles)...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if file != nil {
				t.Fatal("expected no file on error")
			}
		})
	}
}

func TestDecodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	articles := yenctest.Split("a.bin", yenctest.Pattern(500), 100)
	if _, err := Decode(ctx, readers(articles)...); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecoderWithEncoding(t *testing.T) {
	want := yenctest.Pattern(256)
	article := yenctest.SinglePart("cp.bin", want, 128)
	for _, enc := range []*charmap.Charmap{charmap.ISO8859_1, charmap.ISO8859_15} {
		d := NewDecoder(WithEncoding(enc))
		if d.Encoding() != enc {
			t.Fatalf("encoding not applied")
		}
		file, err := d.Decode(context.Background(), []LineSource{NewReaderSource(bytes.NewReader(article), enc)})
		if err != nil {
			t.Fatalf("%v: Decode: %v", enc, err)
		}
		if !bytes.Equal(file.Bytes(), want) {
			t.Fatalf("%v: decoded file mismatch", enc)
		}
	}
}

func TestDecoderLogsParts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := NewDecoder(WithLogger(zap.New(core)))
	articles := yenctest.Split("log.bin", yenctest.Pattern(300), 100)
	sources := make([]LineSource, len(articles))
	for i, a := range articles {
		sources[i] = NewLineSource(yenctest.Lines(a))
	}
	if _, err := d.Decode(context.Background(), sources); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	entries := logs.FilterMessage("part decoded").All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	if entries[2].ContextMap()["begin"] != int64(201) {
		t.Fatalf("unexpected fields %v", entries[2].ContextMap())
	}
}

func TestAssemblerAddsPartsOneByOne(t *testing.T) {
	want := yenctest.Pattern(1000)
	articles := yenctest.Split("asm.bin", want, 300)
	var asm Assembler
	for i := len(articles) - 1; i >= 0; i-- {
		part, err := DecodePartLines(yenctest.Lines(articles[i]))
		if err != nil {
			t.Fatalf("part %d: %v", i, err)
		}
		if err := asm.Add(part); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}
	file, err := asm.File()
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if file.Name != "asm.bin" || !bytes.Equal(file.Bytes(), want) {
		t.Fatal("assembled file mismatch")
	}
	var empty Assembler
	if file, err := empty.File(); file != nil || err != nil {
		t.Fatalf("expected nil, nil; got %v, %v", file, err)
	}
}

func TestAssemblerRejectsOffsetPastLimit(t *testing.T) {
	one := 1
	part := &DecodedPart{
		Header:     &Header{Name: "far.bin", Size: 1 << 50, Part: &one},
		PartHeader: &PartHeader{Begin: 1 << 50, End: 1 << 50},
		Data:       []byte{1},
	}
	var asm Assembler
	if err := asm.Add(part); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	small := NewDecoder(WithMaxSize(10)).NewAssembler()
	part.PartHeader = &PartHeader{Begin: 11, End: 11}
	if err := small.Add(part); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
