package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"minemap/engine/chunk/gen"
	"minemap/hal"
	"minemap/internal/buildinfo"
	"minemap/internal/chunkserver"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	dir      string
	builtin  bool
	size     int
	seed     int64
	compress bool
}

func main() {
	var (
		addr = flag.String("addr", "127.0.0.1:8080", "Listen address.")
		opts options
	)
	flag.StringVar(&opts.dir, "dir", "", "Directory of *.b64 chunk files to serve.")
	flag.BoolVar(&opts.builtin, "builtin", true, "Also serve generated \"spawn\" terrain and \"grid\" chunks.")
	flag.IntVar(&opts.size, "size", 32, "Columns per side of the generated chunks.")
	flag.Int64Var(&opts.seed, "seed", 1, "Terrain seed.")
	flag.BoolVar(&opts.compress, "gzip", true, "Gzip generated chunks.")
	flag.Parse()

	log := hal.NewLogger(os.Stderr)
	hal.Logf(log, "chunkserve: %s", buildinfo.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := chunkserver.New(log)
	if err := populate(ctx, srv, opts); err != nil {
		fatalf("chunkserve: %v", err)
	}
	if len(srv.Names()) == 0 {
		fatalf("chunkserve: nothing to serve (use -dir or -builtin)")
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fatalf("chunkserve: %v", err)
	}
	hal.Logf(log, "chunkserve: serving %d chunks on http://%s/chunks/", len(srv.Names()), ln.Addr())
	if err := serve(ctx, log, ln, srv.Handler()); err != nil {
		fatalf("chunkserve: %v", err)
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func populate(ctx context.Context, srv *chunkserver.Server, opts options) error {
	if opts.dir != "" {
		if _, err := srv.LoadDir(ctx, opts.dir); err != nil {
			return err
		}
	}
	if !opts.builtin {
		return nil
	}
	if opts.size <= 0 || opts.size > 1024 {
		return fmt.Errorf("size out of range: %d", opts.size)
	}
	if _, err := srv.AddBlocks(ctx, "spawn", gen.Terrain(gen.DefaultTerrain(opts.size, opts.seed)), opts.compress); err != nil {
		return err
	}
	_, err := srv.AddBlocks(ctx, "grid", gen.Grid(opts.size, 2, [4]float32{0x4a / 255.0, 0xde / 255.0, 0x80 / 255.0, 1}), opts.compress)
	return err
}

// serve runs h on ln until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, log hal.Logger, ln net.Listener, h http.Handler) error {
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hal.Logf(log, "chunkserve: shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}
