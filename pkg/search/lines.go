package search

import (
	"bufio"
	"fmt"
)

// maxLineBytes bounds a single scanned line. Data files with longer lines
// are rejected as an error Result rather than silently truncated.
const maxLineBytes = 1 << 20

// readLines reads all lines of the file at path, newline stripped but
// otherwise unprocessed.
func readLines(fsys fileSystem, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
