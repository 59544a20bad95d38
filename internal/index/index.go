// Package index defines the capability set shared by the two secondary index
// structures and builds either one by kind.
package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tuannm99/tinysql/internal/bst"
	"github.com/tuannm99/tinysql/internal/btree"
)

// NotFound is the Search result for an absent key.
const NotFound = -1

var ErrUnknownKind = errors.New("index: unknown index kind")

// Kind selects the index structure.
type Kind string

const (
	KindBST   Kind = "BST"
	KindBTree Kind = "BTREE"
)

func (k Kind) String() string { return string(k) }

// ParseKind accepts BST or BTREE in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BST":
		return KindBST, nil
	case "BTREE", "B-TREE":
		return KindBTree, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Index maps column values to row positions. Positions are only meaningful
// for the table contents the index was built from.
type Index interface {
	Insert(key string, pos int)
	Search(key string) int
	SearchLessThan(key string) []int
	SearchGreaterThan(key string) []int
	SearchLessOrEqual(key string) []int
	SearchGreaterOrEqual(key string) []int
	SearchLike(pattern string) ([]int, error)
	SearchNotLike(pattern string) ([]int, error)
	Len() int
	// Ordered reports whether range results follow value order.
	Ordered() bool
}

type options struct {
	compare func(a, b string) int
	hashed  bool
	canon   func(string) string
}

type Option func(*options)

// WithCompare orders keys by compare instead of byte-wise string order.
func WithCompare(compare func(a, b string) int) Option {
	return func(o *options) { o.compare = compare }
}

// WithHashedKeys makes a BTREE index key entries by a hash of canon(value).
// It has no effect on BST.
func WithHashedKeys(canon func(string) string) Option {
	return func(o *options) {
		o.hashed = true
		o.canon = canon
	}
}

// New creates an empty index of the given kind.
func New(kind Kind, opts ...Option) (Index, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch kind {
	case KindBST:
		return bst.New(o.compare), nil
	case KindBTree:
		if o.hashed {
			return btree.NewHashIndex(o.canon), nil
		}
		return btree.NewValueIndex(o.compare), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
}

var (
	_ Index = (*bst.Tree)(nil)
	_ Index = (*btree.Index[string])(nil)
	_ Index = (*btree.Index[uint64])(nil)
)
