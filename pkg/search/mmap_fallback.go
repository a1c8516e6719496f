//go:build !unix

package search

import "os"

// mapFile falls back to a buffered whole-file read on platforms without a
// usable read-only memory map. The scan semantics are identical; only the
// zero-copy property is lost.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
