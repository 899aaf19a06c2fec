// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images fetches illustrative images for a topic and saves them
// under <root>/<code>/img<N><ext>. Image fetching is an enhancement: every
// failure is logged and reported as absence, never as an error.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/topic-explainer/internal/httputil"
	"github.com/pdiddy/topic-explainer/internal/logging"
)

const (
	DefaultSearchTimeout   = 30 * time.Second
	DefaultDownloadTimeout = 10 * time.Second
	DefaultMaxImages       = 1

	defaultExtension = ".png"
)

// knownExtensions are the suffixes kept from an image URL.
var knownExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Fetcher searches for images and downloads them one by one.
type Fetcher struct {
	// Searcher is nil when search credentials are not configured.
	Searcher Searcher
	Client   *http.Client

	// Root is the images root; each topic gets Root/<code>.
	Root string

	MaxImages       int
	SearchTimeout   time.Duration
	DownloadTimeout time.Duration
	UserAgent       string

	Log *logging.Logger

	// Out receives human-readable progress lines. Nil discards them.
	Out io.Writer
}

// Fetch searches imageQuery and downloads the results into the directory
// of code. It returns that directory when at least one image was saved.
func (f *Fetcher) Fetch(ctx context.Context, code, imageQuery string) (string, bool) {
	log := logging.OrNop(f.Log).With("code", code)
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	if f.Searcher == nil {
		log.Warn("image search not configured, skipping images")
		fmt.Fprintf(out, "  images: skipped (search not configured)\n")
		return "", false
	}

	max := f.MaxImages
	if max <= 0 {
		max = DefaultMaxImages
	}

	searchCtx, cancel := context.WithTimeout(ctx, orDefault(f.SearchTimeout, DefaultSearchTimeout))
	links, err := f.Searcher.SearchImages(searchCtx, imageQuery, max)
	cancel()
	if err != nil {
		log.Warn("image search failed", "query", imageQuery, "error", err)
		fmt.Fprintf(out, "  images: search failed: %v\n", err)
		return "", false
	}
	if len(links) == 0 {
		log.Info("no images found", "query", imageQuery)
		fmt.Fprintf(out, "  images: none found for %q\n", imageQuery)
		return "", false
	}
	if len(links) > max {
		links = links[:max]
	}

	dir := filepath.Join(f.Root, code)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("creating image directory failed", "dir", dir, "error", err)
		return "", false
	}

	downloaded := 0
	for i, link := range links {
		dest := filepath.Join(dir, fmt.Sprintf("img%d%s", i+1, ImageExtension(link)))
		n, err := httputil.Download(ctx, f.Client, link, dest, f.UserAgent, orDefault(f.DownloadTimeout, DefaultDownloadTimeout))
		if err != nil {
			log.Warn("image download failed", "index", i+1, "url", link, "error", err)
			fmt.Fprintf(out, "  images: download %d failed: %v\n", i+1, err)
			continue
		}
		log.Debug("image saved", "path", dest, "bytes", n)
		downloaded++
	}

	if downloaded == 0 {
		fmt.Fprintf(out, "  images: no image could be downloaded\n")
		return "", false
	}
	fmt.Fprintf(out, "  images: %d saved in %s\n", downloaded, dir)
	return dir, true
}

// ImageExtension infers a file extension from the last path element of
// rawURL, ignoring any query string. Unknown or missing suffixes map to .png.
func ImageExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(path.Base(p)))
	if knownExtensions[ext] {
		return ext
	}
	return defaultExtension
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
