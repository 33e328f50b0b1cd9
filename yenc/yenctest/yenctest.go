// Package yenctest builds yEnc encoded articles for tests.
package yenctest

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DefaultLineWidth is the line length most posters use.
const DefaultLineWidth = 128

// EncodeLines encodes data into lines of about width characters. Critical
// characters are escaped with '=' and the following byte shifted by 64.
func EncodeLines(data []byte, width int) [][]byte {
	if width <= 0 {
		width = DefaultLineWidth
	}
	var lines [][]byte
	line := make([]byte, 0, width+2)
	for _, b := range data {
		e := b + 42
		switch e {
		case 0x00, '\n', '\r', '=':
			line = append(line, '=', e+64)
		default:
			line = append(line, e)
		}
		if len(line) >= width {
			lines = append(lines, line)
			line = make([]byte, 0, width+2)
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// SinglePart returns a complete single-part article for data.
func SinglePart(name string, data []byte, width int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=ybegin line=%d size=%d name=%s\r\n", width, len(data), name)
	writeLines(&buf, data, width)
	fmt.Fprintf(&buf, "=yend size=%d crc32=%08x\r\n", len(data), crc32.ChecksumIEEE(data))
	return buf.Bytes()
}

// MultiPart returns the article for the 1-based inclusive range begin..end
// of file, posted as part number part of total.
func MultiPart(name string, file []byte, part, total int, begin, end int64, width int) []byte {
	data := file[begin-1 : end]
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=ybegin part=%d total=%d line=%d size=%d name=%s\r\n", part, total, width, len(file), name)
	fmt.Fprintf(&buf, "=ypart begin=%d end=%d\r\n", begin, end)
	writeLines(&buf, data, width)
	fmt.Fprintf(&buf, "=yend size=%d part=%d pcrc32=%08x\r\n", len(data), part, crc32.ChecksumIEEE(data))
	return buf.Bytes()
}

// Split cuts file into parts of at most partSize bytes and returns one
// article per part, in order.
func Split(name string, file []byte, partSize int) [][]byte {
	total := (len(file) + partSize - 1) / partSize
	articles := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		begin := int64(i*partSize) + 1
		end := min(int64((i+1)*partSize), int64(len(file)))
		articles = append(articles, MultiPart(name, file, i+1, total, begin, end, DefaultLineWidth))
	}
	return articles
}

// Lines splits an article into terminator-free text lines, reading its bytes
// as ISO-8859-1.
func Lines(article []byte) []string {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(article)
	if err != nil {
		panic(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(text), "\r\n"), "\r\n")
	return lines
}

// Pattern returns n bytes cycling through every byte value.
func Pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func writeLines(buf *bytes.Buffer, data []byte, width int) {
	for _, line := range EncodeLines(data, width) {
		buf.Write(line)
		buf.WriteString("\r\n")
	}
}
