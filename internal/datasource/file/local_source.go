// Package file reads inputs from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local opens a single file on disk.
type Local struct{ path string }

// NewLocal binds a Local source to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name is the base file name, used as the provenance value in output rows.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Path returns the path the source was created with.
func (l *Local) Path() string { return l.path }

// Open returns ctx.Err() without touching the disk when ctx is already done.
// Filesystem errors are wrapped with the path and keep errors.Is working.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
