// Package fetch retrieves recordings referenced by analysis requests into the
// per-job scratch directory.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/echovine/speechscore/pkg/logging"
)

// Fetcher downloads or copies a source URL to the destination path.
type Fetcher interface {
	Fetch(ctx context.Context, source, destPath string) error
}

// New returns a fetcher that dispatches on the source URL scheme: http and
// https sources are downloaded, everything else is treated as a local path.
func New(timeout time.Duration) Fetcher {
	return &dispatcher{
		http:  &HTTPFetcher{client: &http.Client{Timeout: timeout}},
		local: &LocalFetcher{},
	}
}

type dispatcher struct {
	http  *HTTPFetcher
	local *LocalFetcher
}

func (d *dispatcher) Fetch(ctx context.Context, source, destPath string) error {
	u, err := url.Parse(source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return d.http.Fetch(ctx, source, destPath)
	}
	return d.local.Fetch(ctx, source, destPath)
}

// HTTPFetcher downloads a source over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}

	logging.WithFields(logging.Fields{
		"component": "fetch",
		"source":    source,
		"bytes":     n,
	}).Debug("download complete")
	return out.Close()
}

// LocalFetcher copies a file that is already on disk.
type LocalFetcher struct{}

func (f *LocalFetcher) Fetch(ctx context.Context, source, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source = strings.TrimPrefix(source, "file://")

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}
