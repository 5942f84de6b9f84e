// Package chunkserver serves chunk transport payloads over HTTP for the
// viewer's http(s) chunk source.
//
// Routes:
//
//	GET /chunks              names of the served chunks (JSON)
//	GET /chunks/{name}       base64 transport text, with ETag / If-None-Match
//	GET /chunks/{name}/info  block count and bounds (JSON)
//	GET /healthz
//	GET /metrics             Prometheus
package chunkserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"minemap/engine/chunk"
	"minemap/hal"
)

// Ext is the file extension LoadDir picks up.
const Ext = ".b64"

var ErrBadName = errors.New("chunkserver: invalid chunk name")

// Entry is one served chunk. Entries are immutable once added.
type Entry struct {
	Name       string     `json:"name"`
	Blocks     int        `json:"blocks"`
	Min        [3]float32 `json:"min"`
	Max        [3]float32 `json:"max"`
	Compressed bool       `json:"compressed"`
	Bytes      int        `json:"bytes"`
	ETag       string     `json:"etag"`

	text []byte
}

// Server holds the chunk set and its HTTP handler.
type Server struct {
	log hal.Logger

	mu     sync.RWMutex
	chunks map[string]*Entry

	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	served   prometheus.Gauge
}

func New(log hal.Logger) *Server {
	s := &Server{
		log:    log,
		chunks: make(map[string]*Entry),
		reg:    prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chunkserver",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method", "route"}),
		served: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkserver",
			Name:      "chunks",
			Help:      "Number of chunks being served.",
		}),
	}
	s.reg.MustRegister(s.requests, s.duration, s.served)
	return s
}

// Add validates text as a chunk transport payload and serves it under name.
// An existing chunk with the same name is replaced.
func (s *Server) Add(ctx context.Context, name string, text []byte) (*Entry, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	blocks, err := chunk.NewLoader(textFetcher(text)).Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("chunkserver: %s: %w", name, err)
	}
	e := &Entry{
		Name:   name,
		Blocks: len(blocks),
		Bytes:  len(text),
		ETag:   etag(text),
		text:   text,
	}
	e.Min, e.Max, _ = chunk.Bounds(blocks)
	e.Compressed = gzipped(text)

	s.mu.Lock()
	s.chunks[name] = e
	n := len(s.chunks)
	s.mu.Unlock()
	s.served.Set(float64(n))
	return e, nil
}

// AddBlocks encodes blocks and serves them under name.
func (s *Server) AddBlocks(ctx context.Context, name string, blocks []chunk.Block, compress bool) (*Entry, error) {
	text, err := chunk.EncodeTransport(blocks, compress)
	if err != nil {
		return nil, err
	}
	return s.Add(ctx, name, text)
}

// LoadDir adds every *.b64 file in dir, named after the file without the
// extension. Files are decoded concurrently; the first failure aborts.
func (s *Server) LoadDir(ctx context.Context, dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return 0, err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range paths {
		g.Go(func() error {
			text, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(p), Ext)
			e, err := s.Add(ctx, name, text)
			if err != nil {
				return err
			}
			hal.Logf(s.log, "chunkserver: %s: %d blocks", e.Name, e.Blocks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(paths), nil
}

// Get returns the entry for name.
func (s *Server) Get(name string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.chunks[name]
	return e, ok
}

// Names lists the served chunks in sorted order.
func (s *Server) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.chunks))
	for n := range s.chunks {
		names = append(names, n)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/chunks", func(r chi.Router) {
		r.Get("/", s.listChunks)
		r.Get("/{name}", s.getChunk)
		r.Get("/{name}/info", s.getInfo)
	})
	return r
}

func (s *Server) listChunks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"chunks": s.Names()})
}

func (s *Server) getChunk(w http.ResponseWriter, r *http.Request) {
	e, ok := s.Get(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("ETag", e.ETag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatch(r.Header.Get("If-None-Match"), e.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=us-ascii")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.text)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(e.text)
	}
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	e, ok := s.Get(chi.URLParam(r, "name"))
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "chunk not found"})
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func etag(text []byte) string {
	return fmt.Sprintf("%q", strconv.FormatUint(xxhash.Sum64(text), 16))
}

// etagMatch reports whether an If-None-Match header names tag. Weak
// validators compare equal to strong ones for GET.
func etagMatch(header, tag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == tag {
			return true
		}
	}
	return false
}

func validName(name string) bool {
	if name == "" || len(name) > 128 || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// gzipped sniffs the first base64 quantum for the gzip header.
func gzipped(text []byte) bool {
	text = bytes.TrimSpace(text)
	if len(text) < 4 {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(string(text[:4]))
	return err == nil && chunk.IsGzip(raw)
}

type textFetcher []byte

func (t textFetcher) Fetch(context.Context, string) ([]byte, error) { return t, nil }
