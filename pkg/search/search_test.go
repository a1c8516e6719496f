package search

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFS wraps the real filesystem and counts every disk touch, so
// tests can assert that warm caches answer without I/O.
type countingFS struct {
	opens int
	reads int
}

func (c *countingFS) Open(name string) (io.ReadCloser, error) {
	c.opens++
	return os.Open(name)
}

func (c *countingFS) ReadFile(name string) ([]byte, error) {
	c.reads++
	return os.ReadFile(name)
}

func (c *countingFS) total() int { return c.opens + c.reads }

// setFS swaps the filesystem of any concrete strategy.
func setFS(t *testing.T, s Searcher, fsys fileSystem) {
	t.Helper()
	switch v := s.(type) {
	case *LineScan:
		v.fsys = fsys
	case *MemoryMappedScan:
		v.fsys = fsys
	case *BufferedChunkScan:
		v.fsys = fsys
	case *RegexLineScan:
		v.fsys = fsys
	case *TrieScan:
		v.fsys = fsys
	case *CachedLinesScan:
		v.fsys = fsys
	case *SetScan:
		v.fsys = fsys
	default:
		t.Fatalf("unknown searcher type %T", s)
	}
}

func writeDataFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o600))
	return path
}

func TestNew_AllNamesConstruct(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)
			require.NotNil(t, s)
		})
	}
}

func TestNew_UnknownName(t *testing.T) {
	s, err := New("bogus")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "bogus")
}

func TestRegistered(t *testing.T) {
	assert.True(t, Registered("mmap"))
	assert.True(t, Registered(DefaultAlgorithm))
	assert.False(t, Registered("bogus"))
}

func TestSearch_ExactMatchSemantics(t *testing.T) {
	path := writeDataFile(t, "alpha\nbeta\n  gamma  \ndelta epsilon\n")

	for _, name := range Names() {
		for _, reread := range []bool{true, false} {
			t.Run(name, func(t *testing.T) {
				s, err := New(name)
				require.NoError(t, err)

				// Lines present verbatim after stripping.
				assert.Equal(t, ResultExists, s.Search(path, "alpha", reread))
				assert.Equal(t, ResultExists, s.Search(path, "beta", reread))
				// Surrounding whitespace on the file line is stripped.
				assert.Equal(t, ResultExists, s.Search(path, "gamma", reread))
				// Lines with inner spaces match only in full.
				assert.Equal(t, ResultExists, s.Search(path, "delta epsilon", reread))

				// No substring, prefix, or case-folded matches.
				assert.Equal(t, ResultNotFound, s.Search(path, "alp", reread))
				assert.Equal(t, ResultNotFound, s.Search(path, "eta", reread))
				assert.Equal(t, ResultNotFound, s.Search(path, "ALPHA", reread))
				assert.Equal(t, ResultNotFound, s.Search(path, "delta", reread))
				assert.Equal(t, ResultNotFound, s.Search(path, "zeta", reread))
			})
		}
	}
}

func TestSearch_FileNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.txt")

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, ResultFileNotFound, s.Search(missing, "anything", true))
			assert.Equal(t, ResultFileNotFound, s.Search(missing, "anything", false))
		})
	}
}

func TestSearch_UnreadablePathIsError(t *testing.T) {
	// A directory opens but cannot be read as a file; strategies must turn
	// that into an error Result, not a panic or FILE NOT FOUND.
	dir := t.TempDir()

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)
			res := s.Search(dir, "anything", false)
			assert.True(t, res.IsError(), "got %q", res)
		})
	}
}

func TestSearch_CachedSnapshotSkipsDisk(t *testing.T) {
	// Strategies with a path-keyed cache must answer warm reread=false
	// queries without touching the filesystem, even if the file changed
	// underneath.
	cachingNames := []string{"mmap", "regex", "trie", "cached", "set"}

	for _, name := range cachingNames {
		t.Run(name, func(t *testing.T) {
			path := writeDataFile(t, "alpha\nbeta\ngamma\n")
			s, err := New(name)
			require.NoError(t, err)

			fs := &countingFS{}
			setFS(t, s, fs)

			require.Equal(t, ResultExists, s.Search(path, "beta", false))
			warm := fs.total()
			require.Positive(t, warm)

			// Change the file underneath the cache.
			require.NoError(t, os.WriteFile(path, []byte("delta\n"), 0o600))

			// Warm-cache answers come from the snapshot, with zero I/O.
			assert.Equal(t, ResultExists, s.Search(path, "beta", false))
			assert.Equal(t, ResultNotFound, s.Search(path, "delta", false))
			assert.Equal(t, warm, fs.total(), "expected no filesystem access on warm cache")
		})
	}
}

func TestSearch_ChunkMemoizesRepeatedLookup(t *testing.T) {
	path := writeDataFile(t, "alpha\nbeta\ngamma\n")
	s := NewBufferedChunkScan()
	fs := &countingFS{}
	setFS(t, s, fs)

	require.Equal(t, ResultExists, s.Search(path, "beta", false))
	warm := fs.total()

	// Identical (path, query) repeat is served from the verdict memo.
	assert.Equal(t, ResultExists, s.Search(path, "beta", false))
	assert.Equal(t, warm, fs.total())

	// A different query re-reads the file.
	assert.Equal(t, ResultNotFound, s.Search(path, "delta", false))
	assert.Greater(t, fs.total(), warm)
}

func TestSearch_RereadSeesFreshContent(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			path := writeDataFile(t, "alpha\nbeta\n")
			s, err := New(name)
			require.NoError(t, err)

			// Warm whatever cache the strategy keeps.
			require.Equal(t, ResultNotFound, s.Search(path, "omega", false))

			f, ferr := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
			require.NoError(t, ferr)
			_, ferr = f.WriteString("omega\n")
			require.NoError(t, ferr)
			require.NoError(t, f.Close())

			assert.Equal(t, ResultExists, s.Search(path, "omega", true))
		})
	}
}

func TestSearch_RereadInvalidatesCache(t *testing.T) {
	// After a reread=true call, later reread=false calls must reflect the
	// refreshed content, not a pre-reread snapshot.
	for _, name := range []string{"mmap", "regex", "trie", "cached", "set"} {
		t.Run(name, func(t *testing.T) {
			path := writeDataFile(t, "alpha\n")
			s, err := New(name)
			require.NoError(t, err)

			require.Equal(t, ResultExists, s.Search(path, "alpha", false))

			require.NoError(t, os.WriteFile(path, []byte("omega\n"), 0o600))
			require.Equal(t, ResultExists, s.Search(path, "omega", true))

			assert.Equal(t, ResultExists, s.Search(path, "omega", false))
			assert.Equal(t, ResultNotFound, s.Search(path, "alpha", false))
		})
	}
}

func TestSearch_PathChangeInvalidatesCache(t *testing.T) {
	for _, name := range []string{"mmap", "regex", "trie", "cached", "set"} {
		t.Run(name, func(t *testing.T) {
			first := writeDataFile(t, "alpha\n")
			second := writeDataFile(t, "beta\n")
			s, err := New(name)
			require.NoError(t, err)

			require.Equal(t, ResultExists, s.Search(first, "alpha", false))
			assert.Equal(t, ResultExists, s.Search(second, "beta", false))
			assert.Equal(t, ResultNotFound, s.Search(second, "alpha", false))
		})
	}
}

func TestSupportsCaching(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"line", false},
		{"mmap", true},
		{"chunk", true},
		{"regex", true},
		{"trie", true},
		{"cached", true},
		{"set", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.SupportsCaching())
		})
	}
}

func TestSearch_RegexMetacharactersAreLiteral(t *testing.T) {
	path := writeDataFile(t, "a.c\nx(y)z\n")
	s := NewRegexLineScan()

	assert.Equal(t, ResultExists, s.Search(path, "a.c", true))
	assert.Equal(t, ResultExists, s.Search(path, "x(y)z", true))
	// "." must not act as a wildcard.
	assert.Equal(t, ResultNotFound, s.Search(path, "a+c", true))
	assert.Equal(t, ResultNotFound, s.Search(path, "abc", true))
}

func TestSearch_LastLineWithoutNewline(t *testing.T) {
	path := writeDataFile(t, "alpha\nbeta")

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, ResultExists, s.Search(path, "beta", true))
		})
	}
}

func TestSearch_LargeFileCrossesChunkBoundary(t *testing.T) {
	// Build a file larger than one chunk so the needle straddles reads.
	var data []byte
	for i := 0; i < 1200; i++ {
		data = append(data, []byte("padding-line-padding-line\n")...)
	}
	data = append(data, []byte("needle\n")...)
	path := writeDataFile(t, string(data))

	s := NewBufferedChunkScan()
	assert.Equal(t, ResultExists, s.Search(path, "needle", true))
	assert.Equal(t, ResultNotFound, s.Search(path, "needle-missing", true))
}

func TestResult_IsError(t *testing.T) {
	assert.False(t, ResultExists.IsError())
	assert.False(t, ResultNotFound.IsError())
	assert.False(t, ResultFileNotFound.IsError())
	assert.True(t, ErrorResult(os.ErrClosed).IsError())
}
