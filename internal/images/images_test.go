// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type fakeSearcher struct {
	links    []string
	err      error
	gotQuery string
	gotMax   int
}

func (f *fakeSearcher) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	f.gotQuery, f.gotMax = query, max
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("search without deadline")
	}
	return f.links, f.err
}

// imageServer serves fake image bytes under /ok/ and 404s elsewhere.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ok/") {
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprint(w, "fake-image-bytes")
			return
		}
		http.NotFound(w, r)
	}))
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://example.com/a/diagram.jpg", ".jpg"},
		{"https://example.com/a/diagram.JPEG", ".jpeg"},
		{"https://example.com/a/diagram.webp?w=640&h=480", ".webp"},
		{"https://example.com/a/diagram.gif#frag", ".gif"},
		{"https://example.com/a/diagram.bmp", ".bmp"},
		{"https://example.com/a/diagram.svg", ".png"},
		{"https://example.com/a/diagram", ".png"},
		{"https://example.com/", ".png"},
		{"https://example.com/image.php?file=x.jpg", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageExtension(tt.url))
		})
	}
}

func TestFetchWithoutSearcher(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer
	f := &Fetcher{Root: root, Out: &out}

	dir, ok := f.Fetch(context.Background(), "rag", "retrieval augmented generation")
	assert.False(t, ok)
	assert.Empty(t, dir)
	assert.Contains(t, out.String(), "not configured")
	assert.NoDirExists(t, filepath.Join(root, "rag"))
}

func TestFetchDownloadsImages(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	root := filepath.Join(t.TempDir(), "img")
	s := &fakeSearcher{links: []string{
		ts.URL + "/ok/first.jpg",
		ts.URL + "/missing/second.png",
		ts.URL + "/ok/third?size=large",
	}}
	f := &Fetcher{Searcher: s, Client: ts.Client(), Root: root, MaxImages: 3}

	dir, ok := f.Fetch(context.Background(), "colbert", "ColBERT late interaction diagram")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "colbert"), dir)
	assert.Equal(t, "ColBERT late interaction diagram", s.gotQuery)
	assert.Equal(t, 3, s.gotMax)

	assert.FileExists(t, filepath.Join(dir, "img1.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "img2.png"))
	assert.FileExists(t, filepath.Join(dir, "img3.png"))

	data, err := os.ReadFile(filepath.Join(dir, "img1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "fake-image-bytes", string(data))
}

func TestFetchCapsResults(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	s := &fakeSearcher{links: []string{ts.URL + "/ok/1.png", ts.URL + "/ok/2.png", ts.URL + "/ok/3.png"}}
	f := &Fetcher{Searcher: s, Client: ts.Client(), Root: t.TempDir()}

	dir, ok := f.Fetch(context.Background(), "prf", "q")
	require.True(t, ok)
	assert.Equal(t, DefaultMaxImages, s.gotMax)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFetchAllDownloadsFail(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	s := &fakeSearcher{links: []string{ts.URL + "/missing/a.png"}}
	f := &Fetcher{Searcher: s, Client: ts.Client(), Root: t.TempDir()}

	_, ok := f.Fetch(context.Background(), "prf", "q")
	assert.False(t, ok)
}

func TestFetchSearchErrorAndNoResults(t *testing.T) {
	root := t.TempDir()
	for name, s := range map[string]*fakeSearcher{
		"error":      {err: errors.New("quota exceeded")},
		"no results": {},
	} {
		t.Run(name, func(t *testing.T) {
			f := &Fetcher{Searcher: s, Root: root}
			dir, ok := f.Fetch(context.Background(), "dpr", "q")
			assert.False(t, ok)
			assert.Empty(t, dir)
			assert.NoDirExists(t, filepath.Join(root, "dpr"))
		})
	}
}

func TestFetchIdempotentDirectory(t *testing.T) {
	ts := imageServer(t)
	defer ts.Close()

	root := t.TempDir()
	s := &fakeSearcher{links: []string{ts.URL + "/ok/a.gif"}}
	f := &Fetcher{Searcher: s, Client: ts.Client(), Root: root, DownloadTimeout: time.Second}

	_, ok := f.Fetch(context.Background(), "x", "q")
	require.True(t, ok)
	_, ok = f.Fetch(context.Background(), "x", "q")
	require.True(t, ok)
	assert.FileExists(t, filepath.Join(root, "x", "img1.gif"))
}

func TestCustomSearch(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"cx":         q.Get("cx"),
			"q":          q.Get("q"),
			"searchType": q.Get("searchType"),
			"num":        q.Get("num"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items": [{"link": "https://img.example.com/a.png"}, {"link": ""}, {"link": "https://img.example.com/b.jpg"}]}`)
	}))
	defer ts.Close()

	cs, err := NewCustomSearch(context.Background(), "key", "engine-1",
		option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	links, err := cs.SearchImages(context.Background(), "neural ranking", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example.com/a.png", "https://img.example.com/b.jpg"}, links)
	assert.Equal(t, map[string]string{"cx": "engine-1", "q": "neural ranking", "searchType": "image", "num": "10"}, gotQuery)
}

func TestCustomSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"code": 403, "message": "forbidden"}}`)
	}))
	defer ts.Close()

	cs, err := NewCustomSearch(context.Background(), "key", "engine-1",
		option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	_, err = cs.SearchImages(context.Background(), "q", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403: forbidden")

	var gerr *googleapi.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusForbidden, gerr.Code)
}

func TestNewCustomSearchRequiresCredentials(t *testing.T) {
	_, err := NewCustomSearch(context.Background(), "", "cx")
	require.Error(t, err)
	_, err = NewCustomSearch(context.Background(), "key", "")
	require.Error(t, err)
}
