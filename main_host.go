package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"minemap/app"
	"minemap/hal"
	"minemap/internal/buildinfo"
	"minemap/internal/config"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (default $"+config.EnvPath+").")
		headless    hal.HeadlessConfig
		chunkSrc    = flag.String("chunk", "", "Chunk to load: http(s) URL, file:// URL or path.")
		compression = flag.String("compression", "", "Chunk compression: auto|gzip|none.")
		width       = flag.Int("width", 0, "Window width in pixels.")
		height      = flag.Int("height", 0, "Window height in pixels.")
		scale       = flag.Int("scale", 0, "Screen pixels per rendered pixel.")
		grid        = flag.Int("grid", 0, "Demo grid size (cubes per side).")
		fragment    = flag.String("fragment", "", "Fragment stage: lambert|flat.")
		wireframe   = flag.Bool("wireframe", false, "Start in wireframe mode.")
		console     = flag.Bool("console", false, "Show the log console at start.")
		version     = flag.Bool("version", false, "Print the build version and exit.")
	)
	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chunk":
			cfg.Chunk.Source = *chunkSrc
		case "compression":
			cfg.Chunk.Compression = *compression
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "scale":
			cfg.Window.Scale = *scale
		case "grid":
			cfg.Render.GridSize = *grid
		case "fragment":
			cfg.Render.Fragment = *fragment
		case "wireframe":
			cfg.Render.Wireframe = *wireframe
		case "console":
			cfg.HUD.Console = *console
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	newApp := func(h hal.HAL) func() error {
		a, err := app.New(h, cfg)
		if err != nil {
			hal.Logf(h.Logger(), "app: %v", err)
		}
		return a.Step
	}

	if headless.Enabled {
		headless.Width = cfg.Window.Width / cfg.Window.Scale
		headless.Height = cfg.Window.Height / cfg.Window.Scale
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, headless, newApp); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fatal(err)
		}
		return
	}

	if err := hal.RunWindow(hal.WindowConfig{
		Title:  "minemap",
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Scale:  cfg.Window.Scale,
		TPS:    cfg.Window.TPS,
	}, newApp); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
