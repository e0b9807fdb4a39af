package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// HTTP fetches keys relative to BaseURL. Keys that are absolute URLs are
// requested as-is. No authentication or custom headers are sent.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP returns an HTTP fetcher using http.DefaultClient.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{BaseURL: baseURL, Client: http.DefaultClient}
}

func (h *HTTP) url(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return strings.TrimSuffix(h.BaseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}

// Fetch GETs the key. Progress totals come from Content-Length.
func (h *HTTP) Fetch(ctx context.Context, key string, progress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url(key), nil)
	if err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{Key: key, Status: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &FetchError{Key: key, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %q", resp.Status)}
	}

	data, err := readAll(resp.Body, resp.ContentLength, progress)
	if err != nil {
		return nil, &FetchError{Key: key, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}
