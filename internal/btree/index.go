package btree

import (
	"cmp"
	"regexp"
	"strings"

	"github.com/OneOfOne/xxhash"

	"github.com/tuannm99/tinysql/internal/like"
)

// NotFound is returned by Search when the key is absent.
const NotFound = -1

// Index adapts a Tree to string column values. In value mode K is the string
// itself; in hash mode K is a 64-bit hash and ranges follow hash order.
type Index[K any] struct {
	tree    *Tree[K]
	keyOf   func(string) K
	ordered bool
}

// NewValueIndex orders entries by compare over the original values. A nil
// compare means byte-wise string order.
func NewValueIndex(compare func(a, b string) int) *Index[string] {
	if compare == nil {
		compare = strings.Compare
	}
	return &Index[string]{
		tree:    NewTree(compare),
		keyOf:   func(s string) string { return s },
		ordered: true,
	}
}

// NewHashIndex keys entries by the xxhash of canon(value). Distinct values
// with colliding hashes are indistinguishable. A nil canon hashes the raw value.
func NewHashIndex(canon func(string) string) *Index[uint64] {
	if canon == nil {
		canon = func(s string) string { return s }
	}
	return &Index[uint64]{
		tree:  NewTree(cmp.Compare[uint64]),
		keyOf: func(s string) uint64 { return xxhash.ChecksumString64(canon(s)) },
	}
}

func (x *Index[K]) Insert(key string, pos int) {
	x.tree.Insert(x.keyOf(key), key, pos)
}

func (x *Index[K]) Search(key string) int {
	if pos, ok := x.tree.Search(x.keyOf(key)); ok {
		return pos
	}
	return NotFound
}

func (x *Index[K]) SearchLessThan(key string) []int {
	return x.tree.Below(x.keyOf(key), false)
}

func (x *Index[K]) SearchLessOrEqual(key string) []int {
	return x.tree.Below(x.keyOf(key), true)
}

func (x *Index[K]) SearchGreaterThan(key string) []int {
	return x.tree.Above(x.keyOf(key), false)
}

func (x *Index[K]) SearchGreaterOrEqual(key string) []int {
	return x.tree.Above(x.keyOf(key), true)
}

func (x *Index[K]) SearchLike(pattern string) ([]int, error) {
	re, err := like.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return x.match(re, true), nil
}

func (x *Index[K]) SearchNotLike(pattern string) ([]int, error) {
	re, err := like.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return x.match(re, false), nil
}

func (x *Index[K]) match(re *regexp.Regexp, want bool) []int {
	var out []int
	x.tree.Ascend(func(text string, pos int) bool {
		if re.MatchString(text) == want {
			out = append(out, pos)
		}
		return true
	})
	return out
}

func (x *Index[K]) Len() int { return x.tree.Len() }

// Ordered reports whether range results follow value order.
func (x *Index[K]) Ordered() bool { return x.ordered }

// Ascend visits the stored values in index order.
func (x *Index[K]) Ascend(fn func(key string, pos int) bool) { x.tree.Ascend(fn) }
