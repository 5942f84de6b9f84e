package chunk

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Fetcher returns the base64 text payload stored under url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Decompressor inflates a gzip stream. A nil Decompressor on a Loader means the
// capability is absent, which is a supported configuration.
type Decompressor interface {
	Decompress(ctx context.Context, gz []byte) ([]byte, error)
}

// Compression states whether the transport applied gzip.
type Compression uint8

const (
	// CompressionAuto sniffs the gzip magic bytes.
	CompressionAuto Compression = iota
	CompressionGzip
	CompressionNone
)

func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionGzip:
		return "gzip"
	case CompressionNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseCompression maps a config value to a Compression mode.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CompressionAuto, nil
	case "gzip":
		return CompressionGzip, nil
	case "none", "raw":
		return CompressionNone, nil
	default:
		return CompressionAuto, fmt.Errorf("chunk: unknown compression %q", s)
	}
}

// DefaultMaxBytes bounds the binary payload size, after decompression when the
// payload is compressed.
const DefaultMaxBytes = 64 << 20

// Loader fetches and decodes chunk payloads.
type Loader struct {
	Fetcher      Fetcher
	Decompressor Decompressor
	Compression  Compression

	// MaxBytes caps the binary payload size (raw, or after decompression); 0
	// selects DefaultMaxBytes.
	MaxBytes int64
}

// NewLoader returns a loader that sniffs compression and inflates gzip with Gzip.
func NewLoader(f Fetcher) *Loader {
	return &Loader{Fetcher: f, Decompressor: Gzip{}}
}

// Load fetches url and returns its blocks.
//
// It blocks on I/O; callers that stop caring cancel ctx.
func (l *Loader) Load(ctx context.Context, url string) ([]Block, error) {
	if l == nil || l.Fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", ErrFetch)
	}

	text, err := l.Fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}

	payload, err := decodeBase64(text)
	if err != nil {
		return nil, err
	}

	raw, err := l.inflate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func (l *Loader) inflate(ctx context.Context, payload []byte) ([]byte, error) {
	compressed := false
	switch l.Compression {
	case CompressionGzip:
		compressed = true
	case CompressionNone:
	default:
		compressed = IsGzip(payload)
	}
	if !compressed {
		if int64(len(payload)) > l.maxBytes() {
			return nil, ErrTooLarge
		}
		return payload, nil
	}
	if l.Decompressor == nil {
		return nil, ErrCompressed
	}

	raw, err := l.Decompressor.Decompress(ctx, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if int64(len(raw)) > l.maxBytes() {
		return nil, ErrTooLarge
	}
	return raw, nil
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxBytes
}

// decodeBase64 decodes the standard alphabet. ASCII whitespace anywhere in the
// text is ignored and trailing padding is optional.
func decodeBase64(text []byte) ([]byte, error) {
	clean := make([]byte, 0, len(text))
	for _, c := range text {
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			clean = append(clean, c)
		}
	}
	clean = bytes.TrimRight(clean, "=")
	out := make([]byte, base64.RawStdEncoding.DecodedLen(len(clean)))
	n, err := base64.RawStdEncoding.Decode(out, clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}
	return out[:n], nil
}

// IsGzip reports whether b starts with the gzip member header.
func IsGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// Gzip is the default Decompressor.
type Gzip struct {
	// Limit caps the inflated size; 0 means DefaultMaxBytes.
	Limit int64
}

func (g Gzip) Decompress(ctx context.Context, gz []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	limit := g.Limit
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	var out bytes.Buffer
	buf := make([]byte, 32<<10)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := zr.Read(buf)
		out.Write(buf[:n])
		if int64(out.Len()) > limit {
			return nil, ErrTooLarge
		}
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// EncodeTransport returns the base64 text form of blocks, gzip-compressed first
// when compress is set.
func EncodeTransport(blocks []Block, compress bool) ([]byte, error) {
	payload := Encode(blocks)
	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(out, payload)
	return out, nil
}
