package search

// CachedLinesScan loads the whole line list once and reuses it until
// reread=true or the path changes. Every query still walks the list
// sequentially; only the disk read is amortized.
type CachedLinesScan struct {
	fsys     fileSystem
	lastPath string
	lines    []string
}

// NewCachedLinesScan returns a line-list-caching searcher.
func NewCachedLinesScan() *CachedLinesScan {
	return &CachedLinesScan{fsys: osFS{}}
}

// SupportsCaching reports that the line list is reused across calls.
func (s *CachedLinesScan) SupportsCaching() bool { return true }

// Search scans the cached line list for an exact match, reloading first
// when required.
func (s *CachedLinesScan) Search(path, query string, reread bool) Result {
	if reread || path != s.lastPath || s.lines == nil {
		lines, err := readLines(s.fsys, path)
		if err != nil {
			return resultFromErr(err)
		}
		s.lines = lines
		s.lastPath = path
	}

	for _, line := range s.lines {
		if matchLine(line, query) {
			return ResultExists
		}
	}
	return ResultNotFound
}
