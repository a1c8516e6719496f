package search

import (
	"io"
	"strings"
)

// chunkSize is the number of bytes per read in BufferedChunkScan.
const chunkSize = 8192

// BufferedChunkScan reads the file in fixed-size chunks, carrying the
// unterminated remainder across chunk boundaries, so memory stays bounded
// regardless of file size. The only cross-call state is a boolean verdict
// memo keyed by (path, query), consulted when reread=false and the exact
// same lookup repeats.
type BufferedChunkScan struct {
	fsys      fileSystem
	verdicts  map[string]bool
	lastPath  string
	lastQuery string
}

// NewBufferedChunkScan returns a bounded-memory chunked searcher.
func NewBufferedChunkScan() *BufferedChunkScan {
	return &BufferedChunkScan{fsys: osFS{}, verdicts: make(map[string]bool)}
}

// SupportsCaching reports that repeated identical lookups are memoized.
func (s *BufferedChunkScan) SupportsCaching() bool { return true }

// Search streams the file in chunks looking for an exact line match.
func (s *BufferedChunkScan) Search(path, query string, reread bool) Result {
	if !reread && s.lastPath == path && s.lastQuery == query {
		if found, ok := s.verdicts[verdictKey(path, query)]; ok {
			if found {
				return ResultExists
			}
			return ResultNotFound
		}
	}

	f, err := s.fsys.Open(path)
	if err != nil {
		return resultFromErr(err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, chunkSize)
	remainder := ""
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines := strings.Split(remainder+string(buf[:n]), "\n")
			remainder = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				if matchLine(line, query) {
					s.memoize(path, query, true)
					return ResultExists
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return ErrorResult(err)
		}
	}

	if remainder != "" && matchLine(remainder, query) {
		s.memoize(path, query, true)
		return ResultExists
	}

	s.memoize(path, query, false)
	return ResultNotFound
}

// memoize records the verdict for a (path, query) pair.
func (s *BufferedChunkScan) memoize(path, query string, found bool) {
	s.verdicts[verdictKey(path, query)] = found
	s.lastPath = path
	s.lastQuery = query
}

// verdictKey builds an unambiguous composite cache key.
func verdictKey(path, query string) string {
	return path + "\x00" + query
}
