package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultDownloadTimeout bounds a single release download.
const DefaultDownloadTimeout = 5 * time.Minute

// Downloader streams a release asset into w. Implementations must honour ctx
// so that cancelling an install aborts the transfer.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// HTTPDownloader fetches assets over HTTP, following redirects.
type HTTPDownloader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPDownloader returns a downloader with the given overall timeout.
// A zero timeout uses DefaultDownloadTimeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &HTTPDownloader{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "tailbreeze/1.0",
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}
