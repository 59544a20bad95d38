package btree

import (
	"cmp"
	"fmt"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func intTree(keys ...int) *Tree[int] {
	t := NewTree(cmp.Compare[int])
	for i, k := range keys {
		t.Insert(k, fmt.Sprint(k), i)
	}
	return t
}

// checkInvariants walks the tree asserting node sizes, key order and that all
// leaves sit at the same depth.
func checkInvariants(t *testing.T, tr *Tree[int]) {
	t.Helper()
	leafDepth := -1
	var walk func(n *node[int], depth int, isRoot bool)
	walk = func(n *node[int], depth int, isRoot bool) {
		require.LessOrEqual(t, len(n.entries), maxEntries)
		if !isRoot {
			require.GreaterOrEqual(t, len(n.entries), Degree-1)
		}
		for i := 1; i < len(n.entries); i++ {
			require.LessOrEqual(t, n.entries[i-1].key, n.entries[i].key)
		}
		if n.leaf() {
			if leafDepth == -1 {
				leafDepth = depth
			}
			require.Equal(t, leafDepth, depth)
			return
		}
		require.Len(t, n.children, len(n.entries)+1)
		for _, c := range n.children {
			walk(c, depth+1, false)
		}
	}
	walk(tr.root, 0, true)
}

func TestTree_SplitsKeepBalance(t *testing.T) {
	tr := NewTree(cmp.Compare[int])
	for i := 0; i < 100; i++ {
		tr.Insert(i, fmt.Sprint(i), i)
	}
	require.Equal(t, 100, tr.Len())
	require.Greater(t, tr.Height(), 1)
	checkInvariants(t, tr)

	var got []int
	tr.Ascend(func(_ string, pos int) bool {
		got = append(got, pos)
		return true
	})
	require.Len(t, got, 100)
	require.True(t, sort.IntsAreSorted(got))
}

func TestTree_FirstSplit(t *testing.T) {
	tr := intTree(10, 20, 30)
	require.Equal(t, 1, tr.Height())
	tr.Insert(40, "40", 3)
	require.Equal(t, 2, tr.Height())
	require.Equal(t, 20, tr.root.entries[0].key)
	checkInvariants(t, tr)
}

func TestTree_Search(t *testing.T) {
	tr := intTree(50, 10, 70, 30, 90, 20, 60)
	pos, ok := tr.Search(30)
	require.True(t, ok)
	require.Equal(t, 3, pos)

	_, ok = tr.Search(31)
	require.False(t, ok)
}

func TestTree_DuplicatesKeepInsertionOrder(t *testing.T) {
	tr := NewTree(cmp.Compare[int])
	for i := 0; i < 20; i++ {
		tr.Insert(7, "7", i)
	}
	tr.Insert(3, "3", 20)
	checkInvariants(t, tr)

	pos, ok := tr.Search(7)
	require.True(t, ok)
	require.Equal(t, 0, pos)

	ge := tr.Above(7, true)
	require.Len(t, ge, 20)
	require.True(t, sort.IntsAreSorted(ge))
	require.Equal(t, []int{20}, tr.Below(7, false))
}

func TestTree_Ranges(t *testing.T) {
	// position i holds key keys[i]
	keys := []int{5, 1, 9, 3, 7}
	tr := intTree(keys...)

	require.Equal(t, []int{1, 3}, tr.Below(5, false))
	require.Equal(t, []int{1, 3, 0}, tr.Below(5, true))
	require.Equal(t, []int{4, 2}, tr.Above(5, false))
	require.Equal(t, []int{0, 4, 2}, tr.Above(5, true))
	require.Empty(t, tr.Below(1, false))
	require.Empty(t, tr.Above(9, false))
}

func TestValueIndex(t *testing.T) {
	x := NewValueIndex(nil)
	for i, v := range []string{"pear", "apple", "fig", "Apricot", "kiwi"} {
		x.Insert(v, i)
	}
	require.True(t, x.Ordered())
	require.Equal(t, 5, x.Len())
	require.Equal(t, 2, x.Search("fig"))
	require.Equal(t, NotFound, x.Search("plum"))

	// byte order: "Apricot" < "apple" < "fig" < "kiwi" < "pear"
	require.Equal(t, []int{3, 1}, x.SearchLessThan("fig"))
	require.Equal(t, []int{3, 1, 2}, x.SearchLessOrEqual("fig"))
	require.Equal(t, []int{4, 0}, x.SearchGreaterThan("fig"))
	require.Equal(t, []int{2, 4, 0}, x.SearchGreaterOrEqual("fig"))

	got, err := x.SearchLike("a%")
	require.NoError(t, err)
	require.Equal(t, []int{3, 1}, got)

	got, err = x.SearchNotLike("a%")
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 0}, got)
}

func TestHashIndex(t *testing.T) {
	x := NewHashIndex(nil)
	for i, v := range []string{"a", "b", "c", "d", "e", "f"} {
		x.Insert(v, i)
	}
	require.False(t, x.Ordered())
	require.Equal(t, 3, x.Search("d"))
	require.Equal(t, NotFound, x.Search("zz"))

	// ranges follow hash order but still partition the entries
	lt := x.SearchLessThan("c")
	ge := x.SearchGreaterOrEqual("c")
	require.Len(t, append(lt, ge...), 6)
	require.Contains(t, ge, 2)

	got, err := x.SearchLike("%")
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestHashIndex_Canonical(t *testing.T) {
	x := NewHashIndex(func(s string) string {
		if s == "1.0" {
			return "1"
		}
		return s
	})
	x.Insert("1", 0)
	require.Equal(t, 0, x.Search("1.0"))
}

func TestValueIndex_RangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ranges match a linear scan", prop.ForAll(
		func(keys []string, bound string) bool {
			x := NewValueIndex(nil)
			for i, k := range keys {
				x.Insert(k, i)
			}
			want := 0
			for _, k := range keys {
				if k < bound {
					want++
				}
			}
			lt := x.SearchLessThan(bound)
			if len(lt) != want {
				return false
			}
			for _, p := range lt {
				if keys[p] >= bound {
					return false
				}
			}
			le, gt := x.SearchLessOrEqual(bound), x.SearchGreaterThan(bound)
			if len(le)+len(gt) != len(keys) {
				return false
			}
			for _, p := range gt {
				if keys[p] <= bound {
					return false
				}
			}
			return len(x.SearchGreaterOrEqual(bound)) == len(keys)-want
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
