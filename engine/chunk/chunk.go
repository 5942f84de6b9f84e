// Package chunk decodes the viewer's block chunk format.
//
// A chunk on the wire is base64 text wrapping (usually) gzip-compressed binary:
//
//	offset  size   field
//	0       4      magic "BLKB"
//	4       4      record count N, uint32 little-endian
//	8       28*N   N records of x, y, z, r, g, b, a as float32 little-endian
//
// Loader reverses the transport encodings and Decode parses the binary form.
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Magic is the 4-byte chunk signature.
const Magic = "BLKB"

const (
	HeaderSize = 8
	RecordSize = 7 * 4
)

var (
	ErrFetch         = errors.New("chunk: fetch failed")
	ErrBase64        = errors.New("chunk: invalid base64 payload")
	ErrCompressed    = errors.New("chunk: payload is compressed but no decompressor is available")
	ErrDecompress    = errors.New("chunk: decompression failed")
	ErrInvalidFormat = errors.New("chunk: invalid format")
	ErrTruncated     = errors.New("chunk: truncated")
	ErrTooLarge      = errors.New("chunk: payload too large")
)

// Block is one positioned, coloured cube. Colour channels are RGBA and are not
// clamped.
type Block struct {
	Pos   [3]float32
	Color [4]float32
}

// Decode parses a decompressed chunk. The result has exactly the declared number
// of blocks, in file order; bytes after the last record are ignored.
func Decode(raw []byte) ([]Block, error) {
	if len(raw) < len(Magic) || string(raw[:len(Magic)]) != Magic {
		return nil, ErrInvalidFormat
	}
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(raw))
	}

	n := binary.LittleEndian.Uint32(raw[4:8])
	need := uint64(HeaderSize) + uint64(n)*RecordSize
	if need > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: %d records need %d bytes, have %d", ErrTruncated, n, need, len(raw))
	}

	blocks := make([]Block, n)
	off := HeaderSize
	for i := range blocks {
		b := &blocks[i]
		for j := range b.Pos {
			b.Pos[j] = readF32(raw[off:])
			off += 4
		}
		for j := range b.Color {
			b.Color[j] = readF32(raw[off:])
			off += 4
		}
	}
	return blocks, nil
}

// Encode returns the binary (uncompressed) form of blocks.
func Encode(blocks []Block) []byte {
	out := make([]byte, HeaderSize+len(blocks)*RecordSize)
	copy(out, Magic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(blocks)))

	off := HeaderSize
	for _, b := range blocks {
		for _, v := range b.Pos {
			putF32(out[off:], v)
			off += 4
		}
		for _, v := range b.Color {
			putF32(out[off:], v)
			off += 4
		}
	}
	return out
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// Bounds returns the component-wise min and max block positions. ok is false
// for an empty list.
func Bounds(blocks []Block) (lo, hi [3]float32, ok bool) {
	if len(blocks) == 0 {
		return lo, hi, false
	}
	lo, hi = blocks[0].Pos, blocks[0].Pos
	for _, b := range blocks[1:] {
		for i, v := range b.Pos {
			lo[i] = min(lo[i], v)
			hi[i] = max(hi[i], v)
		}
	}
	return lo, hi, true
}
