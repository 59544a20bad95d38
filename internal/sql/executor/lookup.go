package executor

import (
	"fmt"

	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// Lookup dispatches the predicate operator to the index and returns the
// candidate positions in index order.
func Lookup(idx index.Index, p planner.Predicate) ([]int, error) {
	switch p.Op {
	case planner.OpEq:
		pos := idx.Search(p.Value)
		if pos == index.NotFound {
			return nil, nil
		}
		return []int{pos}, nil
	case planner.OpLt:
		return idx.SearchLessThan(p.Value), nil
	case planner.OpGt:
		return idx.SearchGreaterThan(p.Value), nil
	case planner.OpLe:
		return idx.SearchLessOrEqual(p.Value), nil
	case planner.OpGe:
		return idx.SearchGreaterOrEqual(p.Value), nil
	case planner.OpLike:
		return idx.SearchLike(p.Value)
	case planner.OpNotLike:
		return idx.SearchNotLike(p.Value)
	default:
		return nil, fmt.Errorf("%w: operator %q has no index lookup", ErrBadPredicate, string(p.Op))
	}
}
