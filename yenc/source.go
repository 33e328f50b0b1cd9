package yenc

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// LineSource yields the lines of one encoded stream without their
// terminators. ReadLine returns io.EOF after the last line.
type LineSource interface {
	ReadLine() (string, error)
}

type readerSource struct {
	buf *bufio.Reader
}

// NewReaderSource reads lines from r, interpreting its bytes as text in the
// single-byte encoding enc. Both LF and CRLF terminators are stripped.
func NewReaderSource(r io.Reader, enc encoding.Encoding) LineSource {
	return &readerSource{buf: bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))}
}

func (s *readerSource) ReadLine() (string, error) {
	line, err := s.buf.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

type sliceSource struct {
	lines []string
	pos   int
}

// NewLineSource serves lines that were already split and decoded to text.
func NewLineSource(lines []string) LineSource {
	return &sliceSource{lines: lines}
}

func (s *sliceSource) ReadLine() (string, error) {
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.pos]
	s.pos++
	return line, nil
}
