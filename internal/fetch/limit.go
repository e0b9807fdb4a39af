package fetch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type limited struct {
	f   Fetcher
	sem *semaphore.Weighted
}

// Limit bounds the number of concurrent transfers through f to n.
// n <= 0 returns f unchanged.
func Limit(f Fetcher, n int) Fetcher {
	if n <= 0 {
		return f
	}
	return &limited{f: f, sem: semaphore.NewWeighted(int64(n))}
}

func (l *limited) Fetch(ctx context.Context, key string, progress ProgressFunc) ([]byte, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}
	defer l.sem.Release(1)
	return l.f.Fetch(ctx, key, progress)
}
