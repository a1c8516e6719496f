package search

import "bytes"

// MemoryMappedScan is a hybrid strategy. With reread=true it maps the file
// read-only and scans the raw byte view line by line, touching no heap
// beyond the map itself. With reread=false it materializes a set of
// stripped lines keyed by path and answers from that, skipping the disk
// while the path is unchanged.
type MemoryMappedScan struct {
	fsys     fileSystem
	lastPath string
	lineSet  map[string]struct{}
}

// NewMemoryMappedScan returns the hybrid mmap/set searcher.
func NewMemoryMappedScan() *MemoryMappedScan {
	return &MemoryMappedScan{fsys: osFS{}}
}

// SupportsCaching reports that the set mode reuses state across calls.
func (s *MemoryMappedScan) SupportsCaching() bool { return true }

// Search looks for an exact line match, via the mapped view when reread is
// true and via the path-keyed line set otherwise.
func (s *MemoryMappedScan) Search(path, query string, reread bool) Result {
	if reread {
		// Invalidate the set cache so a later reread=false call rebuilds
		// from fresh content instead of serving a stale snapshot.
		s.lineSet = nil
		s.lastPath = ""
		return s.searchMapped(path, query)
	}

	if path != s.lastPath || s.lineSet == nil {
		data, err := s.fsys.ReadFile(path)
		if err != nil {
			return resultFromErr(err)
		}
		s.lineSet = buildLineSet(data)
		s.lastPath = path
	}

	if _, ok := s.lineSet[query]; ok {
		return ResultExists
	}
	return ResultNotFound
}

// searchMapped scans the memory-mapped byte view for a full line equal to
// the query after whitespace stripping.
func (s *MemoryMappedScan) searchMapped(path, query string) Result {
	data, closer, err := mapFile(path)
	if err != nil {
		return resultFromErr(err)
	}
	defer func() { _ = closer() }()

	return scanBytesForLine(data, query)
}

// scanBytesForLine walks data one line at a time without copying, comparing
// each stripped line against query.
func scanBytesForLine(data []byte, query string) Result {
	q := []byte(query)
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			data = data[i+1:]
		} else {
			data = nil
		}
		if bytes.Equal(bytes.TrimSpace(line), q) {
			return ResultExists
		}
	}
	return ResultNotFound
}

// buildLineSet collects the stripped lines of data into a membership set.
func buildLineSet(data []byte) map[string]struct{} {
	set := make(map[string]struct{})
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i]
			data = data[i+1:]
		} else {
			data = nil
		}
		set[string(bytes.TrimSpace(line))] = struct{}{}
	}
	return set
}
