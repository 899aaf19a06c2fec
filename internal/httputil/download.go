// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/topic-explainer/internal/fsutil"
)

// MaxDownloadBytes bounds a single download. Larger bodies are an error.
var MaxDownloadBytes int64 = 50 << 20

// Download fetches url into destPath with a single GET bounded by timeout.
// The body goes to a temporary file that is renamed into place only after
// the full body arrived, so a failed download never leaves a partial file.
// A non-200 response is an error. There is no retry.
func Download(ctx context.Context, client *http.Client, url, destPath, userAgent string, timeout time.Duration) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body := &limitedReader{r: resp.Body, left: MaxDownloadBytes}
	return fsutil.WriteFrom(destPath, body, 0o644)
}

// limitedReader fails once more than left bytes were read, unlike
// io.LimitReader which silently truncates.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, fmt.Errorf("response body exceeds %d bytes", MaxDownloadBytes)
	}
	return n, err
}
