// Package bst is the ordered-tree index: an unbalanced binary search tree
// keyed by the literal column value.
package bst

import (
	"regexp"
	"strings"

	"github.com/tuannm99/tinysql/internal/like"
)

// NotFound is returned by Search when the key is absent.
const NotFound = -1

type node struct {
	key       string
	positions []int // insertion order
	left      *node
	right     *node
}

// Tree maps keys to row positions. The zero value is not usable; use New.
type Tree struct {
	root *node
	cmp  func(a, b string) int
	size int
}

// New creates an empty tree. A nil cmp means byte-wise string order.
func New(cmp func(a, b string) int) *Tree {
	if cmp == nil {
		cmp = strings.Compare
	}
	return &Tree{cmp: cmp}
}

// Len returns the number of (key, position) pairs.
func (t *Tree) Len() int { return t.size }

// Ordered is always true: range results follow key order.
func (t *Tree) Ordered() bool { return true }

// Insert adds (key, pos). A key equal to an existing one is attached to the
// same node.
func (t *Tree) Insert(key string, pos int) {
	t.root = t.insert(t.root, key, pos)
	t.size++
}

func (t *Tree) insert(n *node, key string, pos int) *node {
	if n == nil {
		return &node{key: key, positions: []int{pos}}
	}
	switch c := t.cmp(key, n.key); {
	case c < 0:
		n.left = t.insert(n.left, key, pos)
	case c > 0:
		n.right = t.insert(n.right, key, pos)
	default:
		n.positions = append(n.positions, pos)
	}
	return n
}

// Search returns the first position stored under key, or NotFound.
func (t *Tree) Search(key string) int {
	n := t.root
	for n != nil {
		switch c := t.cmp(key, n.key); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.positions[0]
		}
	}
	return NotFound
}

func (t *Tree) SearchLessThan(key string) []int {
	var out []int
	t.below(t.root, key, false, &out)
	return out
}

func (t *Tree) SearchLessOrEqual(key string) []int {
	var out []int
	t.below(t.root, key, true, &out)
	return out
}

func (t *Tree) SearchGreaterThan(key string) []int {
	var out []int
	t.above(t.root, key, false, &out)
	return out
}

func (t *Tree) SearchGreaterOrEqual(key string) []int {
	var out []int
	t.above(t.root, key, true, &out)
	return out
}

// below collects keys < bound (or <= when inclusive) in order. The right
// subtree is pruned once the node itself reaches the bound.
func (t *Tree) below(n *node, bound string, inclusive bool, out *[]int) {
	if n == nil {
		return
	}
	c := t.cmp(n.key, bound)
	t.below(n.left, bound, inclusive, out)
	if c < 0 || (inclusive && c == 0) {
		*out = append(*out, n.positions...)
	}
	if c < 0 {
		t.below(n.right, bound, inclusive, out)
	}
}

// above is the mirror of below.
func (t *Tree) above(n *node, bound string, inclusive bool, out *[]int) {
	if n == nil {
		return
	}
	c := t.cmp(n.key, bound)
	if c > 0 {
		t.above(n.left, bound, inclusive, out)
	}
	if c > 0 || (inclusive && c == 0) {
		*out = append(*out, n.positions...)
	}
	t.above(n.right, bound, inclusive, out)
}

func (t *Tree) SearchLike(pattern string) ([]int, error) {
	re, err := like.Compile(pattern)
	if err != nil {
		return nil, err
	}
	var out []int
	t.match(t.root, re, true, &out)
	return out, nil
}

func (t *Tree) SearchNotLike(pattern string) ([]int, error) {
	re, err := like.Compile(pattern)
	if err != nil {
		return nil, err
	}
	var out []int
	t.match(t.root, re, false, &out)
	return out, nil
}

func (t *Tree) match(n *node, re *regexp.Regexp, want bool, out *[]int) {
	if n == nil {
		return
	}
	t.match(n.left, re, want, out)
	if re.MatchString(n.key) == want {
		*out = append(*out, n.positions...)
	}
	t.match(n.right, re, want, out)
}

// Ascend visits every (key, positions) pair in key order until fn returns false.
func (t *Tree) Ascend(fn func(key string, positions []int) bool) {
	ascend(t.root, fn)
}

func ascend(n *node, fn func(string, []int) bool) bool {
	if n == nil {
		return true
	}
	if !ascend(n.left, fn) {
		return false
	}
	if !fn(n.key, n.positions) {
		return false
	}
	return ascend(n.right, fn)
}
