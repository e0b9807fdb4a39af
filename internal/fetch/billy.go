package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// Billy serves keys from a go-billy filesystem rooted at the asset origin.
// Leading slashes in keys are ignored.
type Billy struct {
	FS billy.Filesystem
}

// Fetch reads key from the filesystem, reporting progress against its size.
func (b Billy) Fetch(ctx context.Context, key string, progress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}
	name := strings.TrimPrefix(key, "/")

	info, err := b.FS.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &FetchError{Key: key, Err: ErrNotFound}
		}
		return nil, &FetchError{Key: key, Err: err}
	}
	if info.IsDir() {
		return nil, &FetchError{Key: key, Err: fmt.Errorf("%s is a directory", name)}
	}

	f, err := b.FS.Open(name)
	if err != nil {
		return nil, &FetchError{Key: key, Err: err}
	}
	defer func() { _ = f.Close() }()

	data, err := readAll(f, info.Size(), progress)
	if err != nil {
		return nil, &FetchError{Key: key, Err: fmt.Errorf("read: %w", err)}
	}
	return data, nil
}
