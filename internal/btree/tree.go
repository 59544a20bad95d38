// Package btree is the multiway-tree index: a B-tree of minimum degree 2
// (2-3-4 tree) with preemptive splitting on insert. Nodes never shrink; the
// engine rebuilds the index instead of deleting keys.
package btree

// Degree is the minimum degree. A node holds at most 2*Degree-1 entries.
const Degree = 2

const maxEntries = 2*Degree - 1

type entry[K any] struct {
	key  K
	text string // original column value, used for LIKE
	pos  int
}

type node[K any] struct {
	entries  []entry[K]
	children []*node[K] // nil for leaves
}

func (n *node[K]) leaf() bool { return n.children == nil }

func (n *node[K]) full() bool { return len(n.entries) == maxEntries }

// Tree is a multiway search tree over keys of type K.
type Tree[K any] struct {
	root *node[K]
	cmp  func(a, b K) int
	size int
}

// NewTree creates an empty tree ordered by cmp.
func NewTree[K any](cmp func(a, b K) int) *Tree[K] {
	return &Tree[K]{root: &node[K]{}, cmp: cmp}
}

func (t *Tree[K]) Len() int { return t.size }

// Height is 1 for a tree whose root is a leaf.
func (t *Tree[K]) Height() int {
	h := 1
	for n := t.root; !n.leaf(); n = n.children[0] {
		h++
	}
	return h
}

// Insert adds (key, pos). Equal keys are placed after the existing ones so an
// in-order walk yields duplicates in insertion order.
func (t *Tree[K]) Insert(key K, text string, pos int) {
	e := entry[K]{key: key, text: text, pos: pos}
	if t.root.full() {
		old := t.root
		t.root = &node[K]{children: []*node[K]{old}}
		t.splitChild(t.root, 0)
	}
	t.insertNonFull(t.root, e)
	t.size++
}

// upperBound returns the first index whose key is greater than key.
func (t *Tree[K]) upperBound(n *node[K], key K) int {
	i := 0
	for i < len(n.entries) && t.cmp(n.entries[i].key, key) <= 0 {
		i++
	}
	return i
}

func (t *Tree[K]) insertNonFull(n *node[K], e entry[K]) {
	for {
		i := t.upperBound(n, e.key)
		if n.leaf() {
			n.entries = append(n.entries, entry[K]{})
			copy(n.entries[i+1:], n.entries[i:])
			n.entries[i] = e
			return
		}
		if n.children[i].full() {
			t.splitChild(n, i)
			if t.cmp(e.key, n.entries[i].key) >= 0 {
				i++
			}
		}
		n = n.children[i]
	}
}

// splitChild splits the full child at index i around its median, which moves
// up into parent.
func (t *Tree[K]) splitChild(parent *node[K], i int) {
	child := parent.children[i]
	mid := Degree - 1
	median := child.entries[mid]

	right := &node[K]{entries: append([]entry[K](nil), child.entries[mid+1:]...)}
	if !child.leaf() {
		right.children = append([]*node[K](nil), child.children[mid+1:]...)
		child.children = child.children[:mid+1]
	}
	child.entries = child.entries[:mid]

	parent.entries = append(parent.entries, entry[K]{})
	copy(parent.entries[i+1:], parent.entries[i:])
	parent.entries[i] = median

	parent.children = append(parent.children, nil)
	copy(parent.children[i+2:], parent.children[i+1:])
	parent.children[i+1] = right
}

// Search returns the position of the first-inserted entry equal to key.
func (t *Tree[K]) Search(key K) (int, bool) {
	return t.search(t.root, key)
}

func (t *Tree[K]) search(n *node[K], key K) (int, bool) {
	i := 0
	for i < len(n.entries) && t.cmp(n.entries[i].key, key) < 0 {
		i++
	}
	if !n.leaf() {
		// earlier duplicates may sit in the left subtree
		if pos, ok := t.search(n.children[i], key); ok {
			return pos, true
		}
	}
	if i < len(n.entries) && t.cmp(n.entries[i].key, key) == 0 {
		return n.entries[i].pos, true
	}
	return 0, false
}

// Below collects positions with key < bound, or <= bound when inclusive,
// in key order.
func (t *Tree[K]) Below(bound K, inclusive bool) []int {
	var out []int
	t.below(t.root, bound, inclusive, &out)
	return out
}

func (t *Tree[K]) below(n *node[K], bound K, inclusive bool, out *[]int) bool {
	for i, e := range n.entries {
		if !n.leaf() && !t.below(n.children[i], bound, inclusive, out) {
			return false
		}
		c := t.cmp(e.key, bound)
		if c > 0 || (c == 0 && !inclusive) {
			return false
		}
		*out = append(*out, e.pos)
	}
	if !n.leaf() {
		return t.below(n.children[len(n.entries)], bound, inclusive, out)
	}
	return true
}

// Above collects positions with key > bound, or >= bound when inclusive,
// in key order.
func (t *Tree[K]) Above(bound K, inclusive bool) []int {
	var out []int
	t.above(t.root, bound, inclusive, &out)
	return out
}

func (t *Tree[K]) above(n *node[K], bound K, inclusive bool, out *[]int) {
	for i, e := range n.entries {
		c := t.cmp(e.key, bound)
		if c < 0 || (c == 0 && !inclusive) {
			// the child to the left holds keys no greater than e
			continue
		}
		if !n.leaf() {
			t.above(n.children[i], bound, inclusive, out)
		}
		*out = append(*out, e.pos)
	}
	if !n.leaf() {
		t.above(n.children[len(n.entries)], bound, inclusive, out)
	}
}

// Ascend visits entries in key order until fn returns false.
func (t *Tree[K]) Ascend(fn func(text string, pos int) bool) {
	t.ascend(t.root, fn)
}

func (t *Tree[K]) ascend(n *node[K], fn func(string, int) bool) bool {
	for i, e := range n.entries {
		if !n.leaf() && !t.ascend(n.children[i], fn) {
			return false
		}
		if !fn(e.text, e.pos) {
			return false
		}
	}
	if !n.leaf() {
		return t.ascend(n.children[len(n.entries)], fn)
	}
	return true
}
