package yenc

import (
	"golang.org/x/text/encoding"
)

const (
	escapeChar   = '='
	offset       = 42
	escapeOffset = 64
)

// DecodeLine decodes one encoded line and appends the result to dst.
// The line must not contain its terminator. Every byte value is valid input:
// '=' escapes the following byte, everything else is shifted back by 42.
func DecodeLine(dst, src []byte) []byte {
	escaped := false
	for _, b := range src {
		if b == escapeChar && !escaped {
			escaped = true
			continue
		}
		if escaped {
			escaped = false
			b -= escapeOffset
		}
		dst = append(dst, b-offset)
	}
	return dst
} // end func DecodeLine

// DecodeTextLine maps a text line back to bytes through the single-byte
// encoding enc and decodes it. Runes enc can not represent are replaced.
func DecodeTextLine(line string, enc encoding.Encoding) ([]byte, error) {
	raw, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(line))
	if err != nil {
		return nil, err
	}
	return DecodeLine(make([]byte, 0, len(raw)), raw), nil
}
