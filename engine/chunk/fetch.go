package chunk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxTextBytes bounds a fetched base64 payload.
const maxTextBytes = 96 << 20

// FileFetcher reads payloads from the local filesystem. Relative paths and
// file:// URLs resolve against Root.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := strings.TrimPrefix(url, "file://")
	if !filepath.IsAbs(p) && f.Root != "" {
		p = filepath.Join(f.Root, p)
	}
	fh, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readLimited(fh)
}

// HTTPFetcher performs a GET per fetch. A nil Client uses http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body)
}

// SchemeFetcher sends http:// and https:// URLs to HTTP and everything else to
// File.
type SchemeFetcher struct {
	HTTP HTTPFetcher
	File FileFetcher
}

func (f SchemeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return f.HTTP.Fetch(ctx, url)
	}
	return f.File.Fetch(ctx, url)
}

func readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxTextBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxTextBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}
