package chunkserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"minemap/engine/chunk"
)

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *lineLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

var testBlocks = []chunk.Block{
	{Pos: [3]float32{-1, 0, 2}, Color: [4]float32{1, 0, 0, 1}},
	{Pos: [3]float32{3, 4, -5}, Color: [4]float32{0, 1, 0, 1}},
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(&lineLog{})
	if _, err := s.AddBlocks(context.Background(), "spawn", testBlocks, true); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string, hdr map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestChunkServedWithETag(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/chunks/spawn", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	tag := resp.Header.Get("ETag")
	if e, _ := s.Get("spawn"); tag == "" || tag != e.ETag {
		t.Fatalf("ETag = %q", tag)
	}

	// The body must round-trip through the viewer's loader.
	blocks, err := chunk.NewLoader(textFetcher(body)).Load(context.Background(), "spawn")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(blocks) != len(testBlocks) || blocks[1] != testBlocks[1] {
		t.Fatalf("blocks = %+v", blocks)
	}

	resp, body = get(t, ts.URL+"/chunks/spawn", map[string]string{"If-None-Match": `"nope", W/` + tag})
	if resp.StatusCode != http.StatusNotModified || body != "" {
		t.Fatalf("conditional GET = %d %q", resp.StatusCode, body)
	}
}

func TestUnknownChunk(t *testing.T) {
	_, ts := newTestServer(t)
	if resp, _ := get(t, ts.URL+"/chunks/nether", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp, _ := get(t, ts.URL+"/chunks/nether/info", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("info status = %d", resp.StatusCode)
	}
}

func TestInfoReportsBounds(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/chunks/spawn/info", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var e Entry
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if e.Name != "spawn" || e.Blocks != 2 || !e.Compressed {
		t.Fatalf("info = %+v", e)
	}
	if e.Min != [3]float32{-1, 0, -5} || e.Max != [3]float32{3, 4, 2} {
		t.Fatalf("bounds = %v %v", e.Min, e.Max)
	}
}

func TestListAndHealth(t *testing.T) {
	s, ts := newTestServer(t)
	if _, err := s.AddBlocks(context.Background(), "arena", testBlocks[:1], false); err != nil {
		t.Fatal(err)
	}
	_, body := get(t, ts.URL+"/chunks", nil)
	if strings.TrimSpace(body) != `{"chunks":["arena","spawn"]}` {
		t.Fatalf("list = %q", body)
	}
	if e, _ := s.Get("arena"); e.Compressed {
		t.Fatalf("uncompressed chunk reported as gzip")
	}
	if resp, body := get(t, ts.URL+"/healthz", nil); resp.StatusCode != http.StatusOK || body != "ok\n" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestMetricsCountRoutes(t *testing.T) {
	_, ts := newTestServer(t)
	get(t, ts.URL+"/chunks/spawn", nil)
	get(t, ts.URL+"/chunks/missing", nil)

	_, body := get(t, ts.URL+"/metrics", nil)
	for _, want := range []string{
		`chunkserver_http_requests_total{method="GET",route="/chunks/{name}",status="200"} 1`,
		`chunkserver_http_requests_total{method="GET",route="/chunks/{name}",status="404"} 1`,
		`chunkserver_chunks 1`,
		`chunkserver_http_request_duration_seconds_count{method="GET",route="/chunks/{name}"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	if _, err := s.Add(ctx, "../etc", []byte("QkxLQg==")); !errors.Is(err, ErrBadName) {
		t.Fatalf("name err = %v", err)
	}
	if _, err := s.Add(ctx, "junk", []byte("!!!")); !errors.Is(err, chunk.ErrBase64) {
		t.Fatalf("payload err = %v", err)
	}
	if len(s.Names()) != 0 {
		t.Fatalf("bad chunk was added")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		text, err := chunk.EncodeTransport(testBlocks, name == "a")
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+Ext), text, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := &lineLog{}
	s := New(log)
	n, err := s.LoadDir(context.Background(), dir)
	if err != nil || n != 2 {
		t.Fatalf("LoadDir = %d, %v", n, err)
	}
	if got := strings.Join(s.Names(), ","); got != "a,b" {
		t.Fatalf("names = %q", got)
	}
	if len(log.lines) != 2 {
		t.Fatalf("log = %q", log.lines)
	}

	if err := os.WriteFile(filepath.Join(dir, "c"+Ext), []byte("not base64!"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(nil).LoadDir(context.Background(), dir); err == nil {
		t.Fatalf("corrupt file accepted")
	}
}
