package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("bst")
	require.NoError(t, err)
	require.Equal(t, KindBST, k)

	k, err = ParseKind(" BTree ")
	require.NoError(t, err)
	require.Equal(t, KindBTree, k)

	_, err = ParseKind("hash")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_BothKindsAgree(t *testing.T) {
	values := []string{"30", "10", "50", "20", "40"}
	for _, kind := range []Kind{KindBST, KindBTree} {
		t.Run(kind.String(), func(t *testing.T) {
			x, err := New(kind)
			require.NoError(t, err)
			for i, v := range values {
				x.Insert(v, i)
			}
			require.True(t, x.Ordered())
			require.Equal(t, 5, x.Len())
			require.Equal(t, 2, x.Search("50"))
			require.Equal(t, NotFound, x.Search("60"))
			require.Equal(t, []int{1, 3}, x.SearchLessThan("30"))
			require.Equal(t, []int{1, 3, 0}, x.SearchLessOrEqual("30"))
			require.Equal(t, []int{4, 2}, x.SearchGreaterThan("30"))
			require.Equal(t, []int{0, 4, 2}, x.SearchGreaterOrEqual("30"))

			got, err := x.SearchLike("_0")
			require.NoError(t, err)
			require.Len(t, got, 5)
			got, err = x.SearchNotLike("1%")
			require.NoError(t, err)
			require.Equal(t, []int{3, 0, 4, 2}, got)
		})
	}
}

func TestNew_WithCompare(t *testing.T) {
	fold := func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }
	for _, kind := range []Kind{KindBST, KindBTree} {
		x, err := New(kind, WithCompare(fold))
		require.NoError(t, err)
		x.Insert("Alpha", 0)
		require.Equal(t, 0, x.Search("ALPHA"), kind)
	}
}

func TestNew_Hashed(t *testing.T) {
	x, err := New(KindBTree, WithHashedKeys(strings.ToLower))
	require.NoError(t, err)
	require.False(t, x.Ordered())
	x.Insert("Key", 7)
	require.Equal(t, 7, x.Search("KEY"))

	// hashing does not apply to BST
	y, err := New(KindBST, WithHashedKeys(strings.ToLower))
	require.NoError(t, err)
	require.True(t, y.Ordered())
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Kind("ISAM"))
	require.ErrorIs(t, err, ErrUnknownKind)
}
