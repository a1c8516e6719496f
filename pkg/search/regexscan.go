package search

import (
	"fmt"
	"regexp"
)

// RegexLineScan compiles a fully-anchored, literal-escaped pattern from the
// query and matches it against each stripped line. The line list is cached
// per path when reread=false; the pattern is rebuilt per call since the
// query varies.
type RegexLineScan struct {
	fsys     fileSystem
	lastPath string
	lines    []string
}

// NewRegexLineScan returns an anchored-regex searcher.
func NewRegexLineScan() *RegexLineScan {
	return &RegexLineScan{fsys: osFS{}}
}

// SupportsCaching reports that the line list is reused across calls.
func (s *RegexLineScan) SupportsCaching() bool { return true }

// Search matches the anchored pattern ^<literal query>$ against every line.
func (s *RegexLineScan) Search(path, query string, reread bool) Result {
	if reread || path != s.lastPath || s.lines == nil {
		lines, err := readLines(s.fsys, path)
		if err != nil {
			return resultFromErr(err)
		}
		s.lines = lines
		s.lastPath = path
	}

	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(query) + "$")
	if err != nil {
		return ErrorResult(fmt.Errorf("compiling pattern: %w", err))
	}

	for _, line := range s.lines {
		if pattern.MatchString(stripped(line)) {
			return ResultExists
		}
	}
	return ResultNotFound
}
