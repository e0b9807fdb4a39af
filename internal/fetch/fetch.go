// Package fetch retrieves asset payloads from a static origin.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound reports a key the origin does not have.
var ErrNotFound = errors.New("asset not found")

// ProgressFunc receives the bytes read so far and the expected total.
// total is 0 when the origin did not announce a size.
type ProgressFunc func(loaded, total int64)

// Fetcher retrieves the binary payload stored under key.
type Fetcher interface {
	Fetch(ctx context.Context, key string, progress ProgressFunc) ([]byte, error)
}

// Func adapts a plain function to Fetcher.
type Func func(ctx context.Context, key string, progress ProgressFunc) ([]byte, error)

func (f Func) Fetch(ctx context.Context, key string, progress ProgressFunc) ([]byte, error) {
	return f(ctx, key, progress)
}

// FetchError is a transport failure. Status is the HTTP status when the
// origin answered, 0 otherwise.
type FetchError struct {
	Key    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Key, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Percent converts a byte count into a completion percentage in [0,100].
// An unknown total yields 0.
func Percent(loaded, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(loaded) / float64(total) * 100
	return min(max(p, 0), 100)
}

type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	fn     ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.fn != nil {
			p.fn(p.loaded, p.total)
		}
	}
	return n, err
}

// maxPrealloc caps the buffer reserved up front from an announced size.
const maxPrealloc = 64 << 20

// readAll drains r, reporting progress after every chunk.
func readAll(r io.Reader, total int64, fn ProgressFunc) ([]byte, error) {
	if total < 0 {
		total = 0
	}
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(min(total, maxPrealloc)))
	}
	if _, err := io.Copy(&buf, &progressReader{r: r, total: total, fn: fn}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
