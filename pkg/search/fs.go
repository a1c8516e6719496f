package search

import (
	"io"
	"os"
)

// fileSystem is the narrow file access surface strategies read through.
// Tests substitute a counting implementation to assert the no-disk-access
// property of warm caches.
type fileSystem interface {
	Open(name string) (io.ReadCloser, error)
	ReadFile(name string) ([]byte, error)
}

// osFS reads from the real filesystem.
type osFS struct{}

func (osFS) Open(name string) (io.ReadCloser, error) { return os.Open(name) }
func (osFS) ReadFile(name string) ([]byte, error)    { return os.ReadFile(name) }
