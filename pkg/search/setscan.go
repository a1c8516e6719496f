package search

// SetScan loads all stripped lines into a hash set once and answers
// membership queries in O(1) average until reread=true or the path changes.
type SetScan struct {
	fsys     fileSystem
	lastPath string
	lineSet  map[string]struct{}
}

// NewSetScan returns a hash-set searcher.
func NewSetScan() *SetScan {
	return &SetScan{fsys: osFS{}}
}

// SupportsCaching reports that the set is reused across calls.
func (s *SetScan) SupportsCaching() bool { return true }

// Search checks set membership, rebuilding the set first when required.
func (s *SetScan) Search(path, query string, reread bool) Result {
	if reread || path != s.lastPath || s.lineSet == nil {
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
