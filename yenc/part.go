package yenc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
)

// maxPrealloc caps the buffer reserved up front from a declared size.
const maxPrealloc = 64 << 20

// DecodedPart is one decoded stream with its validated metadata.
type DecodedPart struct {
	Header     *Header
	PartHeader *PartHeader // nil unless IsFilePart
	Footer     *Footer
	Data       []byte
}

// IsFilePart reports whether the part is a segment of a multi-part file.
func (p *DecodedPart) IsFilePart() bool { return p.Header.IsMultipart() }

// Offset returns the 0-based position of Data within the whole file.
func (p *DecodedPart) Offset() int64 {
	if !p.IsFilePart() {
		return 0
	}
	return p.PartHeader.Begin - 1
}

// DecodePart reads one encoded stream from src. Lines before the =ybegin
// header are skipped; reading stops at the =yend footer.
func (d *Decoder) DecodePart(ctx context.Context, src LineSource) (*DecodedPart, error) {
	header, err := d.readHeader(ctx, src)
	if err != nil {
		return nil, err
	}
	if header.Size > d.maxSize {
		return nil, fmt.Errorf("%w: size=%d, limit %d", ErrTooLarge, header.Size, d.maxSize)
	}
	multipart := header.IsMultipart()

	var data []byte
	if !multipart {
		// single-part file: the whole file follows, no part header expected
		data = make([]byte, 0, prealloc(header.Size))
	}
	var partHeader *PartHeader
	enc := encoding.ReplaceUnsupported(d.enc.NewEncoder())

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := src.ReadLine()
		if err == io.EOF {
			return nil, ErrMissingFooter
		} else if err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(line, PartHeaderTag):
			if !multipart {
				return nil, ErrUnexpectedPartHeader
			}
			if partHeader, err = ParsePartHeader(line); err != nil {
				return nil, err
			}
			if err := checkRange(header, partHeader); err != nil {
				return nil, err
			}
			data = make([]byte, 0, prealloc(partHeader.Len()))

		case strings.HasPrefix(line, FooterTag):
			footer, err := ParseFooter(line)
			if err != nil {
				return nil, err
			}
			if multipart && partHeader == nil {
				return nil, ErrMissingPartHeader
			}
			if err := footer.Validate(header, data); err != nil {
				return nil, err
			}
			if err := checkExtent(header, partHeader, data); err != nil {
				return nil, err
			}
			part := &DecodedPart{Header: header, PartHeader: partHeader, Footer: footer, Data: data}
			d.logPart(part)
			return part, nil

		default:
			raw, err := enc.Bytes([]byte(line))
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data = DecodeLine(data, raw)
			if int64(len(data)) > d.maxSize {
				return nil, fmt.Errorf("%w: payload over %d bytes", ErrTooLarge, d.maxSize)
			}
		}
	}
} // end func DecodePart

func (d *Decoder) readHeader(ctx context.Context, src LineSource) (*Header, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := src.ReadLine()
		if err == io.EOF {
			return nil, ErrFormat
		} else if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, HeaderTag) {
			return ParseHeader(line)
		}
	}
}

// checkRange rejects a part that does not lie within the file.
func checkRange(h *Header, ph *PartHeader) error {
	switch {
	case ph.Begin < 1:
		return mismatch(ErrSizeMismatch, "part begin", ">= 1", ph.Begin)
	case ph.End < ph.Begin:
		return mismatch(ErrSizeMismatch, "part end", fmt.Sprintf(">= %d", ph.Begin), ph.End)
	case ph.End > h.Size:
		return mismatch(ErrSizeMismatch, "part end", fmt.Sprintf("<= %d", h.Size), ph.End)
	}
	return nil
}

// checkExtent compares the payload with the size its header announced.
func checkExtent(h *Header, ph *PartHeader, data []byte) error {
	if ph != nil {
		if ph.Len() != int64(len(data)) {
			return mismatch(ErrSizeMismatch, "part length", ph.Len(), len(data))
		}
		return nil
	}
	if h.Size != int64(len(data)) {
		return mismatch(ErrSizeMismatch, "header size", h.Size, len(data))
	}
	return nil
}

func prealloc(size int64) int {
	if size <= 0 {
		return 0
	}
	return int(min(size, maxPrealloc))
}
