// Package source fetches the raw carts listing the statistics are computed from.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"salesstats/internal/model"
)

// DefaultURL is the public demo listing.
const DefaultURL = "https://dummyjson.com/carts"

// ErrDataUnavailable wraps every fetch failure.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher performs the one-shot retrieval of raw orders.
type Fetcher interface {
	Fetch(ctx context.Context) (*model.CartsPage, error)
}

// HTTPSource issues a single GET. There is no retry.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

// NewHTTPSourceWith is for tests to inject a client.
func NewHTTPSourceWith(url string, client *http.Client) *HTTPSource {
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context) (*model.CartsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrDataUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrDataUnavailable, s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: get %s: status %d", ErrDataUnavailable, s.url, resp.StatusCode)
	}
	return decode(resp.Body)
}

// FileSource reads a carts document from disk, as written by genorders.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Fetch(ctx context.Context) (*model.CartsPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, s.path, err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (*model.CartsPage, error) {
	var page model.CartsPage
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrDataUnavailable, err)
	}
	if page.Carts == nil {
		page.Carts = []model.RawOrder{}
	}
	return &page, nil
}
