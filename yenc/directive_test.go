package yenc

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line string
		want map[string]string
	}{
		{
			line: "=ybegin line=128 size=123456 name=my file name.bin",
			want: map[string]string{"line": "128", "size": "123456", "name": "my file name.bin"},
		},
		{
			line: "=ybegin part=1 total=2 line=128 size=19338 name=  joystick.jpg  ",
			want: map[string]string{"part": "1", "total": "2", "line": "128", "size": "19338", "name": "joystick.jpg"},
		},
		{
			line: "=ybegin size=3 name=a name=b.bin",
			want: map[string]string{"size": "3", "name": "a name=b.bin"},
		},
		{
			line: "=ypart begin=1   end=11250",
			want: map[string]string{"begin": "1", "end": "11250"},
		},
		{
			line: "=yend size=11250 part=1 pcrc32=bfae5c0b junk size=1",
			want: map[string]string{"size": "11250", "part": "1", "pcrc32": "bfae5c0b"},
		},
		{
			line: "=yend",
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		if got := ParseDirective(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseDirective(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader("=ybegin part=2 total=3 line=128 size=500000 name=archive.part01.rar")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Name != "archive.part01.rar" || h.Size != 500000 || h.Line != 128 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if !h.IsMultipart() || *h.Part != 2 || h.Total == nil || *h.Total != 3 {
		t.Fatalf("unexpected part/total: %+v", h)
	}

	h, err = ParseHeader("=ybegin line=128 size=10 name=x")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.IsMultipart() || h.Total != nil {
		t.Fatalf("single part header has part/total: %+v", h)
	}
}

func TestParseHeaderBadField(t *testing.T) {
	_, err := ParseHeader("=ybegin line=128 size=12x name=x")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "size" || fe.Directive != HeaderTag || fe.Value != "12x" {
		t.Fatalf("unexpected field error: %#v", err)
	}
}

func TestParsePartHeader(t *testing.T) {
	p, err := ParsePartHeader("=ypart begin=11251 end=19338")
	if err != nil {
		t.Fatalf("ParsePartHeader: %v", err)
	}
	if p.Begin != 11251 || p.End != 19338 || p.Len() != 8088 {
		t.Fatalf("unexpected part header: %+v len=%d", p, p.Len())
	}
}

func TestParseFooter(t *testing.T) {
	f, err := ParseFooter("=yend size=11250 part=1 pcrc32=bfae5c0b crc32=0xDEADBEEF")
	if err != nil {
		t.Fatalf("ParseFooter: %v", err)
	}
	if f.Size != 11250 || f.Part == nil || *f.Part != 1 {
		t.Fatalf("unexpected footer: %+v", f)
	}
	if f.PartCrc32 == nil || *f.PartCrc32 != 0xbfae5c0b {
		t.Fatalf("unexpected pcrc32: %v", f.PartCrc32)
	}
	if f.Crc32 == nil || *f.Crc32 != 0xdeadbeef {
		t.Fatalf("unexpected crc32: %v", f.Crc32)
	}

	if _, err := ParseFooter("=yend size=1 crc32=zzzz"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for bad crc, got %v", err)
	}
	if _, err := ParseFooter("=yend size=1 crc32=100000000"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for 33 bit crc, got %v", err)
	}
}

func intPtr(v int) *int       { return &v }
func u32Ptr(v uint32) *uint32 { return &v }

func TestFooterValidate(t *testing.T) {
	payload := []byte("123456789")
	single := &Header{Size: 9}
	multi := &Header{Size: 100, Part: intPtr(3)}

	tests := []struct {
		name   string
		header *Header
		footer *Footer
		want   error
	}{
		{"ok without crc", single, &Footer{Size: 9}, nil},
		{"ok crc32", single, &Footer{Size: 9, Crc32: u32Ptr(0xCBF43926)}, nil},
		{"ok pcrc32", multi, &Footer{Size: 9, Part: intPtr(3), PartCrc32: u32Ptr(0xCBF43926)}, nil},
		{"crc32 wins over pcrc32", multi, &Footer{Size: 9, Part: intPtr(3), Crc32: u32Ptr(0xCBF43926), PartCrc32: u32Ptr(1)}, nil},
		{"bad crc32 checked first", multi, &Footer{Size: 9, Part: intPtr(3), Crc32: u32Ptr(1), PartCrc32: u32Ptr(0xCBF43926)}, ErrChecksumMismatch},
		{"bad pcrc32", multi, &Footer{Size: 9, Part: intPtr(3), PartCrc32: u32Ptr(2)}, ErrChecksumMismatch},
		{"size", single, &Footer{Size: 8}, ErrSizeMismatch},
		{"footer part on single", single, &Footer{Size: 9, Part: intPtr(1)}, ErrPartMismatch},
		{"missing footer part", multi, &Footer{Size: 9}, ErrPartMismatch},
		{"other part", multi, &Footer{Size: 9, Part: intPtr(4)}, ErrPartMismatch},
		{"part checked before size", multi, &Footer{Size: 1, Part: intPtr(4)}, ErrPartMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.footer.Validate(tt.header, payload)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMismatchErrorMessage(t *testing.T) {
	err := (&Footer{Size: 8}).Validate(&Header{}, []byte("123456789"))
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if me.Expected != int64(8) || me.Actual != 9 {
		t.Fatalf("unexpected values: %+v", me)
	}
	if got, want := err.Error(), "yenc: size mismatch: size expected 8, got 9"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
