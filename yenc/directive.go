package yenc

import (
	"strconv"
	"strings"
)

// Directive tags. A line is a directive when it starts with one of them.
const (
	HeaderTag     = "=ybegin"
	PartHeaderTag = "=ypart"
	FooterTag     = "=yend"
)

// wire keys
const (
	keyName      = "name"
	keySize      = "size"
	keyLine      = "line"
	keyPart      = "part"
	keyTotal     = "total"
	keyBegin     = "begin"
	keyEnd       = "end"
	keyCrc32     = "crc32"
	keyPartCrc32 = "pcrc32"
)

// Header is the =ybegin line of an encoded stream.
type Header struct {
	Name  string
	Size  int64
	Line  int
	Part  *int // set for a segment of a multi-part file
	Total *int // yEnc 1.2
}

// IsMultipart reports whether the stream is one segment of a multi-part file.
func (h *Header) IsMultipart() bool { return h.Part != nil }

// PartHeader is the =ypart line: the 1-based inclusive byte range of a segment.
type PartHeader struct {
	Begin int64
	End   int64
}

// Len returns the number of bytes in the segment.
func (p *PartHeader) Len() int64 { return p.End - p.Begin + 1 }

// Footer is the =yend line terminating an encoded stream.
type Footer struct {
	Size      int64
	Part      *int
	Crc32     *uint32
	PartCrc32 *uint32
}

// ParseDirective splits a directive line into its key=value fields.
//
// The name field is always last on a =ybegin line and may contain spaces, so
// everything after the first "name=" is the name. The first token is the tag
// itself. Tokens without '=' are skipped and the first occurrence of a key wins.
func ParseDirective(line string) map[string]string {
	fields := make(map[string]string)
	rest, name, hasName := strings.Cut(line, keyName+"=")
	if hasName {
		fields[keyName] = strings.TrimSpace(name)
	}
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return fields
	}
	for _, tok := range tokens[1:] {
		kv := strings.Split(tok, "=")
		if len(kv) < 2 {
			continue
		}
		if _, exists := fields[kv[0]]; exists {
			continue
		}
		fields[kv[0]] = kv[1]
	}
	return fields
} // end func ParseDirective

// getAndConvert looks up key and converts its value. ok is false when the
// key is absent.
func getAndConvert[T any](fields map[string]string, tag, key string, convert func(string) (T, error)) (v T, ok bool, err error) {
	s, exists := fields[key]
	if !exists {
		return v, false, nil
	}
	if v, err = convert(s); err != nil {
		return v, false, &FieldError{Directive: tag, Field: key, Value: s, Err: err}
	}
	return v, true, nil
}

func optional[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func parseInt(s string) (int, error) { return strconv.Atoi(s) }

// parseCrc parses a hex encoded crc32 value, with or without 0x prefix.
func parseCrc(s string) (uint32, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ParseHeader parses a =ybegin line. Absent numeric fields stay zero.
func ParseHeader(line string) (*Header, error) {
	fields := ParseDirective(line)
	h := &Header{Name: fields[keyName]}
	var err error
	if h.Size, _, err = getAndConvert(fields, HeaderTag, keySize, parseInt64); err != nil {
		return nil, err
	}
	if h.Line, _, err = getAndConvert(fields, HeaderTag, keyLine, parseInt); err != nil {
		return nil, err
	}
	part, ok, err := getAndConvert(fields, HeaderTag, keyPart, parseInt)
	if err != nil {
		return nil, err
	}
	h.Part = optional(part, ok)
	total, ok, err := getAndConvert(fields, HeaderTag, keyTotal, parseInt)
	if err != nil {
		return nil, err
	}
	h.Total = optional(total, ok)
	return h, nil
} // end func ParseHeader

// ParsePartHeader parses a =ypart line.
func ParsePartHeader(line string) (*PartHeader, error) {
	fields := ParseDirective(line)
	p := &PartHeader{}
	var err error
	if p.Begin, _, err = getAndConvert(fields, PartHeaderTag, keyBegin, parseInt64); err != nil {
		return nil, err
	}
	if p.End, _, err = getAndConvert(fields, PartHeaderTag, keyEnd, parseInt64); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFooter parses a =yend line.
func ParseFooter(line string) (*Footer, error) {
	fields := ParseDirective(line)
	f := &Footer{}
	var err error
	if f.Size, _, err = getAndConvert(fields, FooterTag, keySize, parseInt64); err != nil {
		return nil, err
	}
	part, ok, err := getAndConvert(fields, FooterTag, keyPart, parseInt)
	if err != nil {
		return nil, err
	}
	f.Part = optional(part, ok)
	crc, ok, err := getAndConvert(fields, FooterTag, keyCrc32, parseCrc)
	if err != nil {
		return nil, err
	}
	f.Crc32 = optional(crc, ok)
	pcrc, ok, err := getAndConvert(fields, FooterTag, keyPartCrc32, parseCrc)
	if err != nil {
		return nil, err
	}
	f.PartCrc32 = optional(pcrc, ok)
	return f, nil
} // end func ParseFooter

// Validate checks the footer against its header and the decoded payload.
// Only the first present checksum is compared: crc32 before pcrc32.
func (f *Footer) Validate(h *Header, payload []byte) error {
	if !f.matchesPart(h) {
		return mismatch(ErrPartMismatch, keyPart, fmtOptional(h.Part), fmtOptional(f.Part))
	}
	if f.Size != int64(len(payload)) {
		return mismatch(ErrSizeMismatch, keySize, f.Size, len(payload))
	}
	field, crc := keyCrc32, f.Crc32
	if crc == nil {
		field, crc = keyPartCrc32, f.PartCrc32
	}
	if crc == nil {
		return nil
	}
	if sum := Checksum(payload); sum != *crc {
		return mismatch(ErrChecksumMismatch, field, *crc, sum)
	}
	return nil
} // end func Validate

func (f *Footer) matchesPart(h *Header) bool {
	if h.Part == nil || f.Part == nil {
		return h.Part == nil && f.Part == nil
	}
	return *h.Part == *f.Part
}

func fmtOptional(v *int) string {
	if v == nil {
		return "none"
	}
	return strconv.Itoa(*v)
}
