package search

import "bufio"

// LineScan is the baseline strategy: a sequential scan over the file,
// comparing each stripped line against the query. It holds no state, so
// every call costs O(file size) regardless of the reread flag.
type LineScan struct {
	fsys fileSystem
}

// NewLineScan returns a stateless sequential-scan searcher.
func NewLineScan() *LineScan {
	return &LineScan{fsys: osFS{}}
}

// SupportsCaching reports that LineScan never reuses state across calls.
func (s *LineScan) SupportsCaching() bool { return false }

// Search scans the file line by line for an exact match.
func (s *LineScan) Search(path, query string, _ bool) Result {
	f, err := s.fsys.Open(path)
	if err != nil {
		return resultFromErr(err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if matchLine(scanner.Text(), query) {
			return ResultExists
		}
	}
	if err := scanner.Err(); err != nil {
		return ErrorResult(err)
	}
	return ResultNotFound
}
