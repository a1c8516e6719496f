package search

// trieNode is one character of the prefix tree. terminal marks that a full
// file line ends at this node.
type trieNode struct {
	children map[rune]*trieNode
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// lineTrie indexes full lines for O(query length) exact-match lookups.
type lineTrie struct {
	root *trieNode
}

func newLineTrie() *lineTrie {
	return &lineTrie{root: newTrieNode()}
}

// insert adds a line to the trie character by character.
func (t *lineTrie) insert(line string) {
	node := t.root
	for _, r := range line {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	node.terminal = true
}

// contains reports whether an exact full line is stored in the trie.
func (t *lineTrie) contains(line string) bool {
	node := t.root
	for _, r := range line {
		child, ok := node.children[r]
		if !ok {
			return false
		}
		node = child
	}
	return node.terminal
}

// TrieScan builds a prefix tree over all stripped lines of the file and
// answers queries by character walk plus end-of-line marker check. The
// whole tree is rebuilt when reread=true or the path changes; lookups on a
// built tree cost O(query length).
type TrieScan struct {
	fsys     fileSystem
	trie     *lineTrie
	lastPath string
}

// NewTrieScan returns a prefix-tree searcher.
func NewTrieScan() *TrieScan {
	return &TrieScan{fsys: osFS{}, trie: newLineTrie()}
}

// SupportsCaching reports that the built tree is reused across calls.
func (s *TrieScan) SupportsCaching() bool { return true }

// Search walks the trie for an exact full-line match, rebuilding it first
// when required.
func (s *TrieScan) Search(path, query string, reread bool) Result {
	if reread || path != s.lastPath {
		lines, err := readLines(s.fsys, path)
		if err != nil {
			return resultFromErr(err)
		}
		trie := newLineTrie()
		for _, line := range lines {
			trie.insert(stripped(line))
		}
		s.trie = trie
		s.lastPath = path
	}

	if s.trie.contains(query) {
		return ResultExists
	}
	return ResultNotFound
}
