// Package yenc decodes yEnc encoded streams (Usenet binary articles) back
// into the original file.
//
// A file travels either as a single-part stream (=ybegin, data, =yend) or as
// several multi-part streams that each carry a =ypart line with the byte range
// they cover. Decode assembles multi-part streams in any order by writing each
// segment at its declared offset. Every stream is validated against the size
// and CRC32 values of its =yend line.
package yenc

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultEncoding is the text encoding of encoded articles.
var DefaultEncoding encoding.Encoding = charmap.ISO8859_1

// DefaultMaxSize caps the size of a decoded file held in memory.
const DefaultMaxSize int64 = 4 << 30

// Decoder decodes encoded streams. It holds no per-decode state and may be
// shared between goroutines.
type Decoder struct {
	enc     encoding.Encoding
	log     *zap.Logger
	maxSize int64
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithEncoding sets the single-byte text encoding of the input.
func WithEncoding(enc encoding.Encoding) Option {
	return func(d *Decoder) {
		if enc != nil {
			d.enc = enc
		}
	}
}

// WithLogger logs every decoded part at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMaxSize rejects files larger than n bytes with ErrTooLarge.
func WithMaxSize(n int64) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

// NewDecoder returns a Decoder using DefaultEncoding and no logging unless
// configured otherwise.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{enc: DefaultEncoding, log: zap.NewNop(), maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Encoding returns the text encoding used for the input.
func (d *Decoder) Encoding() encoding.Encoding { return d.enc }

// MaxSize returns the largest file size the decoder accepts.
func (d *Decoder) MaxSize() int64 { return d.maxSize }

// NewAssembler returns an Assembler bounded by the decoder's size limit.
func (d *Decoder) NewAssembler() *Assembler {
	return &Assembler{limit: d.maxSize}
}

// DecodedFile is the assembled output of Decode, positioned at offset 0.
type DecodedFile struct {
	Name string // from the first header seen
	*Buffer
}

// Decode decodes sources strictly in order and assembles them into one file.
// Multi-part segments may arrive in any order. A single-part file must be the
// only source. It returns nil, nil when sources is empty.
func (d *Decoder) Decode(ctx context.Context, sources []LineSource) (*DecodedFile, error) {
	asm := d.NewAssembler()
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := d.DecodePart(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := asm.Add(part); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
	}
	return asm.File()
} // end func Decode

// Assembler collects decoded parts into one file. The zero value is ready to
// use and bounded by DefaultMaxSize. Callers that decode parts one by one use
// it to keep a single source in memory at a time.
type Assembler struct {
	limit             int64
	name              string
	haveName          bool
	out               *Buffer
	sawFilePart       bool
	sawSinglePartFile bool
}

// Add places part into the file. File parts are written at their offset; a
// single-part file becomes the whole output.
func (a *Assembler) Add(part *DecodedPart) error {
	if !a.haveName {
		a.name, a.haveName = part.Header.Name, true
	}
	if part.IsFilePart() {
		if a.sawSinglePartFile {
			return ErrUnexpectedFilePart
		}
		a.sawFilePart = true
		if a.out == nil {
			a.out = &Buffer{limit: a.limit}
		}
		_, err := a.out.WriteAt(part.Data, part.Offset())
		return err
	}
	if a.sawFilePart {
		return ErrUnexpectedSinglePartFile
	}
	if a.sawSinglePartFile {
		return ErrDuplicateSinglePartFile
	}
	a.sawSinglePartFile = true
	a.out = NewBuffer(part.Data)
	a.out.limit = a.limit
	if int64(len(part.Data)) > a.out.maxSize() {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(part.Data), a.out.maxSize())
	}
	return nil
}

// File returns the assembled file positioned at offset 0, or nil if no part
// was added.
func (a *Assembler) File() (*DecodedFile, error) {
	if a.out == nil {
		return nil, nil
	}
	if _, err := a.out.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &DecodedFile{Name: a.name, Buffer: a.out}, nil
}

func (d *Decoder) logPart(p *DecodedPart) {
	if ce := d.log.Check(zap.DebugLevel, "part decoded"); ce != nil {
		fields := []zap.Field{
			zap.String("name", p.Header.Name),
			zap.Int("bytes", len(p.Data)),
			zap.Bool("file_part", p.IsFilePart()),
		}
		if p.IsFilePart() {
			fields = append(fields,
				zap.Int("part", *p.Header.Part),
				zap.Int64("begin", p.PartHeader.Begin),
				zap.Int64("end", p.PartHeader.End))
		}
		ce.Write(fields...)
	}
}

// DecodePart decodes one stream read from r using DefaultEncoding.
func DecodePart(ctx context.Context, r io.Reader) (*DecodedPart, error) {
	return NewDecoder().DecodePart(ctx, NewReaderSource(r, DefaultEncoding))
}

// DecodePartLines decodes one stream that was already split into lines.
func DecodePartLines(lines []string) (*DecodedPart, error) {
	return NewDecoder().DecodePart(context.Background(), NewLineSource(lines))
}

// Decode decodes the streams read from readers into one file using
// DefaultEncoding.
func Decode(ctx context.Context, readers ...io.Reader) (*DecodedFile, error) {
	sources := make([]LineSource, len(readers))
	for i, r := range readers {
		sources[i] = NewReaderSource(r, DefaultEncoding)
	}
	return NewDecoder().Decode(ctx, sources)
}
