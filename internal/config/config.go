// Package config holds the viewer's settings: built-in defaults, an optional
// YAML file on top, and command-line flags on top of that (see main).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"minemap/engine/chunk"
)

// EnvPath names the environment variable consulted when no -config is given.
const EnvPath = "MINEMAP_CONFIG"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
	Render RenderConfig `yaml:"render"`
	Chunk  ChunkConfig  `yaml:"chunk"`
	HUD    HUDConfig    `yaml:"hud"`
}

type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
	TPS    int `yaml:"tps"`
}

type CameraConfig struct {
	FOV         float32 `yaml:"fov_degrees"`
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	Speed       float32 `yaml:"speed"`
	Sensitivity float32 `yaml:"sensitivity"`
	Start       Pose    `yaml:"start"`
}

type Pose struct {
	X     float32 `yaml:"x"`
	Y     float32 `yaml:"y"`
	Z     float32 `yaml:"z"`
	Yaw   float32 `yaml:"yaw"`
	Pitch float32 `yaml:"pitch"`
}

type RenderConfig struct {
	// Fragment is the built-in fragment stage: "lambert" or "flat".
	Fragment    string     `yaml:"fragment"`
	Wireframe   bool       `yaml:"wireframe"`
	GridSize    int        `yaml:"grid_size"`
	GridSpacing float32    `yaml:"grid_spacing"`
	ClearColor  [4]float32 `yaml:"clear_color"`
}

type ChunkConfig struct {
	// Source is a URL (http, https, file) or a path; empty shows the demo grid.
	Source      string        `yaml:"source"`
	Root        string        `yaml:"root"`
	Compression string        `yaml:"compression"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxBytes    int64         `yaml:"max_bytes"`
}

type HUDConfig struct {
	Status       bool `yaml:"status"`
	Console      bool `yaml:"console"`
	ConsoleLines int  `yaml:"console_lines"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Window: WindowConfig{Width: 960, Height: 600, Scale: 2, TPS: 60},
		Camera: CameraConfig{
			FOV:         45,
			Near:        0.1,
			Far:         200,
			Speed:       5,
			Sensitivity: 0.002,
			Start:       Pose{Y: 2, Z: 10},
		},
		Render: RenderConfig{
			Fragment:    "lambert",
			GridSize:    8,
			GridSpacing: 2,
			ClearColor:  [4]float32{0.53, 0.74, 0.92, 1},
		},
		Chunk: ChunkConfig{
			Compression: "auto",
			Timeout:     30 * time.Second,
			MaxBytes:    64 << 20,
		},
		HUD: HUDConfig{Status: true, ConsoleLines: 64},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $MINEMAP_CONFIG; with neither set the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.Scale < 1 {
		bad("window scale %d", c.Window.Scale)
	}
	if c.Window.TPS <= 0 {
		bad("window tps %d", c.Window.TPS)
	}

	cam := c.Camera
	if !(cam.FOV > 0 && cam.FOV < 180) {
		bad("camera fov %v (want 0 < fov < 180 degrees)", cam.FOV)
	}
	if !(cam.Near > 0) || !(cam.Far > 0) || cam.Near >= cam.Far {
		bad("camera near/far %v/%v (want 0 < near < far)", cam.Near, cam.Far)
	}
	if !(cam.Speed >= 0) || math.IsInf(float64(cam.Speed), 0) {
		bad("camera speed %v", cam.Speed)
	}
	if cam.Sensitivity != cam.Sensitivity {
		bad("camera sensitivity is NaN")
	}

	switch c.Render.Fragment {
	case "lambert", "flat":
	default:
		bad("render fragment %q", c.Render.Fragment)
	}
	if c.Render.GridSize < 0 {
		bad("render grid_size %d", c.Render.GridSize)
	}

	if _, err := chunk.ParseCompression(c.Chunk.Compression); err != nil {
		bad("chunk compression %q", c.Chunk.Compression)
	}
	if c.Chunk.Timeout < 0 {
		bad("chunk timeout %v", c.Chunk.Timeout)
	}
	if c.Chunk.MaxBytes < 0 {
		bad("chunk max_bytes %d", c.Chunk.MaxBytes)
	}
	return errors.Join(errs...)
}

// FOVRadians converts the configured vertical field of view.
func (c CameraConfig) FOVRadians() float32 {
	return c.FOV * math.Pi / 180
}
