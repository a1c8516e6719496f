// Package search provides pluggable exact-line-match strategies.
//
// A query matches a file line only if the line, stripped of surrounding
// whitespace, is exactly equal to the query. Every strategy implements the
// same contract with a different memory/latency/staleness tradeoff, selected
// by name through the registry.
//
// The reread flag is the consistency contract: reread=true forces a fresh
// read of the file for that call and refreshes any cache; reread=false
// permits reusing state previously materialized for the same path, skipping
// disk access entirely.
package search

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Result is the outcome of a search, in wire form.
type Result string

// Search outcomes. Error results carry a message after the "ERROR: " prefix.
const (
	ResultExists       Result = "STRING EXISTS"
	ResultNotFound     Result = "STRING NOT FOUND"
	ResultFileNotFound Result = "FILE NOT FOUND"
)

// errorPrefix starts every error-carrying Result.
const errorPrefix = "ERROR: "

// ErrorResult wraps an error into a Result.
func ErrorResult(err error) Result {
	return Result(errorPrefix + err.Error())
}

// IsError reports whether the result carries an error message.
func (r Result) IsError() bool {
	return strings.HasPrefix(string(r), errorPrefix)
}

// String returns the wire form of the result.
func (r Result) String() string { return string(r) }

// Searcher is the strategy contract for exact-line matching.
//
// Implementations never return an error or panic past this boundary: a
// missing file yields ResultFileNotFound and any I/O or decode failure
// yields an error Result.
type Searcher interface {
	// Search reports whether query matches a full line of the file at path.
	// When reread is true any cached state for the file is bypassed and
	// refreshed.
	Search(path, query string, reread bool) Result

	// SupportsCaching reports whether the strategy reuses materialized
	// state across calls when reread is false.
	SupportsCaching() bool
}

// DefaultAlgorithm is the strategy used when no label is configured.
const DefaultAlgorithm = "mmap"

// constructors maps strategy labels to their factories. Kept as a table so
// swapping the server's algorithm stays a one-word config change.
var constructors = map[string]func() Searcher{
	"line":   func() Searcher { return NewLineScan() },
	"mmap":   func() Searcher { return NewMemoryMappedScan() },
	"chunk":  func() Searcher { return NewBufferedChunkScan() },
	"regex":  func() Searcher { return NewRegexLineScan() },
	"trie":   func() Searcher { return NewTrieScan() },
	"cached": func() Searcher { return NewCachedLinesScan() },
	"set":    func() Searcher { return NewSetScan() },
}

// New returns a fresh Searcher for the given strategy label.
func New(name string) (Searcher, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown search algorithm %q (valid: %s)",
			name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Registered reports whether a strategy label is known.
func Registered(name string) bool {
	_, ok := constructors[name]
	return ok
}

// Names returns all registered strategy labels, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resultFromErr converts a file access error into its Result form.
func resultFromErr(err error) Result {
	if os.IsNotExist(err) {
		return ResultFileNotFound
	}
	return ErrorResult(err)
}

// stripped trims the surrounding whitespace a raw file line carries.
func stripped(line string) string {
	return strings.TrimSpace(line)
}

// matchLine reports whether a raw file line equals the query after
// surrounding-whitespace stripping.
func matchLine(line, query string) bool {
	return stripped(line) == query
}
