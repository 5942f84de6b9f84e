package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"minemap/engine/chunk"
	"minemap/engine/chunk/gen"
)

func main() {
	var (
		outPath  = flag.String("out", "", "Output file (encode mode; - for stdout).")
		inPath   = flag.String("in", "", "Input chunk file or URL (decode mode).")
		mode     = flag.String("mode", "encode", "encode|decode.")
		kind     = flag.String("kind", "terrain", "grid|terrain (encode mode only).")
		size     = flag.Int("size", 32, "Columns per side.")
		seed     = flag.Int64("seed", 1, "Terrain seed.")
		spacing  = flag.Float64("spacing", 2, "Grid spacing.")
		compress = flag.Bool("gzip", true, "Gzip the payload before base64.")
	)
	flag.Parse()

	switch strings.ToLower(*mode) {
	case "encode":
		if *outPath == "" {
			fatalf("usage: mkchunk -mode encode -out spawn.b64 [-kind grid|terrain] [-size 32] [-seed 1] [-gzip]\n       mkchunk -mode decode -in spawn.b64")
		}
		blocks, err := generate(*kind, *size, *seed, float32(*spacing))
		if err != nil {
			fatalf("encode: %v", err)
		}
		if err := writeChunk(*outPath, blocks, *compress); err != nil {
			fatalf("encode: %v", err)
		}
	case "decode":
		if *inPath == "" {
			fatalf("usage: mkchunk -mode decode -in spawn.b64")
		}
		if err := describe(os.Stdout, *inPath); err != nil {
			fatalf("decode: %v", err)
		}
	default:
		fatalf("unknown mode: %s", *mode)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

func generate(kind string, size int, seed int64, spacing float32) ([]chunk.Block, error) {
	if size <= 0 || size > 1024 {
		return nil, fmt.Errorf("size out of range: %d", size)
	}
	switch strings.ToLower(kind) {
	case "grid":
		return gen.Grid(size, spacing, [4]float32{0x4a / 255.0, 0xde / 255.0, 0x80 / 255.0, 1}), nil
	case "terrain":
		return gen.Terrain(gen.DefaultTerrain(size, seed)), nil
	default:
		return nil, fmt.Errorf("unknown kind: %s", kind)
	}
}

func writeChunk(path string, blocks []chunk.Block, compress bool) error {
	text, err := chunk.EncodeTransport(blocks, compress)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(text)
		return err
	}
	if err := os.WriteFile(path, text, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "mkchunk: wrote %d blocks (%d bytes) to %s\n", len(blocks), len(text), path)
	return nil
}

func describe(w io.Writer, src string) error {
	loader := chunk.NewLoader(chunk.SchemeFetcher{})
	blocks, err := loader.Load(context.Background(), src)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "blocks: %d\n", len(blocks))
	if lo, hi, ok := chunk.Bounds(blocks); ok {
		fmt.Fprintf(w, "min: %g %g %g\n", lo[0], lo[1], lo[2])
		fmt.Fprintf(w, "max: %g %g %g\n", hi[0], hi[1], hi[2])
	}
	return nil
}
