// Package gen builds block lists for test chunks: a flat grid and Perlin
// noise terrain. cmd/mkchunk and the chunk server's built-in chunks use it.
package gen

import (
	"github.com/aquilax/go-perlin"

	"minemap/engine/chunk"
)

// Grid returns an n×n floor of blocks on y=0 centred on the origin.
func Grid(n int, spacing float32, color [4]float32) []chunk.Block {
	if n <= 0 {
		return nil
	}
	off := float32(n-1) * spacing / 2
	out := make([]chunk.Block, 0, n*n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			out = append(out, chunk.Block{
				Pos:   [3]float32{float32(x)*spacing - off, 0, float32(z)*spacing - off},
				Color: color,
			})
		}
	}
	return out
}

// TerrainConfig shapes the generated height field.
type TerrainConfig struct {
	Size      int     // columns per side
	Seed      int64
	Scale     float64 // noise units per block
	MaxHeight int
	WaterLine int
}

func DefaultTerrain(size int, seed int64) TerrainConfig {
	return TerrainConfig{Size: size, Seed: seed, Scale: 0.08, MaxHeight: 12, WaterLine: 3}
}

// Height bands, lowest first.
var (
	waterColor = [4]float32{0.20, 0.40, 0.85, 1}
	sandColor  = [4]float32{0.86, 0.80, 0.55, 1}
	grassColor = [4]float32{0.29, 0.87, 0.50, 1}
	rockColor  = [4]float32{0.50, 0.50, 0.52, 1}
	snowColor  = [4]float32{0.95, 0.95, 0.97, 1}
)

// Terrain returns the blocks of a noise height field centred on the origin.
// Each column is filled down to its lowest neighbour so cliffs have no holes.
// The same config always produces the same blocks in the same order.
func Terrain(cfg TerrainConfig) []chunk.Block {
	n := cfg.Size
	if n <= 0 {
		return nil
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 1
	}
	p := perlin.NewPerlin(2, 2, 3, cfg.Seed)

	heights := make([]int, n*n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			v := (p.Noise2D(float64(x)*cfg.Scale, float64(z)*cfg.Scale) + 1) / 2
			h := int(v * float64(cfg.MaxHeight))
			h = max(0, min(cfg.MaxHeight, h))
			if h < cfg.WaterLine {
				h = cfg.WaterLine
			}
			heights[z*n+x] = h
		}
	}
	at := func(x, z int) int {
		x = max(0, min(n-1, x))
		z = max(0, min(n-1, z))
		return heights[z*n+x]
	}

	off := float32(n-1) / 2
	var out []chunk.Block
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			top := at(x, z)
			low := min(top, at(x-1, z), at(x+1, z), at(x, z-1), at(x, z+1))
			for y := max(0, low-1); y <= top; y++ {
				out = append(out, chunk.Block{
					Pos:   [3]float32{float32(x) - off, float32(y), float32(z) - off},
					Color: bandColor(y, top, cfg),
				})
			}
		}
	}
	return out
}

func bandColor(y, top int, cfg TerrainConfig) [4]float32 {
	if top <= cfg.WaterLine {
		if y == top {
			return waterColor
		}
		return sandColor
	}
	if y < top {
		return rockColor
	}
	switch f := float32(top) / float32(cfg.MaxHeight); {
	case top <= cfg.WaterLine+1:
		return sandColor
	case f > 0.85:
		return snowColor
	case f > 0.65:
		return rockColor
	default:
		return grassColor
	}
}
