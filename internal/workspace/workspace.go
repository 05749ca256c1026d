package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Clear removes the directory at path and everything below it.
// A missing path is a no-op; a path that is not a directory is an error.
func Clear(path string) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("expected a directory to delete: %s", root)
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("remove %s: %w", root, err)
	}
	return nil
}

// Root is an extraction root held for the duration of one pipeline run.
// Concurrent runs against the same path are not guarded against.
type Root struct {
	path    string
	once    sync.Once
	release error
}

// Acquire clears any stale content at path and returns a handle whose
// Release clears it again.
func Acquire(path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	slog.Debug("clearing extraction root", "path", abs)
	if err := Clear(abs); err != nil {
		return nil, fmt.Errorf("pre-run cleanup: %w", err)
	}
	return &Root{path: abs}, nil
}

// Path returns the absolute extraction root.
func (r *Root) Path() string { return r.path }

// Release removes the extraction root. Only the first call does any work;
// later calls return the first result.
func (r *Root) Release() error {
	r.once.Do(func() {
		slog.Debug("releasing extraction root", "path", r.path)
		if err := Clear(r.path); err != nil {
			r.release = fmt.Errorf("post-run cleanup: %w", err)
		}
	})
	return r.release
}
