package executor

import (
	"errors"
	"fmt"

	"github.com/tuannm99/tinysql/internal/like"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

var (
	ErrUnknownColumn = errors.New("executor: unknown column")
	ErrBadPredicate  = errors.New("executor: unusable predicate")
)

// Matcher reports whether a row satisfies a compiled predicate.
type Matcher func(row record.Row) bool

// CompilePredicate resolves the predicate column against schema and prepares
// the comparison once. A nil predicate matches every row.
func CompilePredicate(schema record.Schema, p *planner.Predicate) (Matcher, error) {
	if p == nil {
		return func(record.Row) bool { return true }, nil
	}
	pos := schema.ColPos(p.Column)
	if pos < 0 {
		return nil, fmt.Errorf("%w in WHERE: %s", ErrUnknownColumn, p.Column)
	}
	lit := p.Value

	switch p.Op {
	case planner.OpEq:
		return func(row record.Row) bool { return record.EqualValues(row[pos], lit) }, nil
	case planner.OpNe:
		return func(row record.Row) bool { return !record.EqualValues(row[pos], lit) }, nil
	case planner.OpLt:
		return func(row record.Row) bool { return record.CompareValues(row[pos], lit) < 0 }, nil
	case planner.OpGt:
		return func(row record.Row) bool { return record.CompareValues(row[pos], lit) > 0 }, nil
	case planner.OpLe:
		return func(row record.Row) bool { return record.CompareValues(row[pos], lit) <= 0 }, nil
	case planner.OpGe:
		return func(row record.Row) bool { return record.CompareValues(row[pos], lit) >= 0 }, nil
	case planner.OpLike, planner.OpNotLike:
		re, err := like.Compile(lit)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", ErrBadPredicate, lit, err)
		}
		want := p.Op == planner.OpLike
		return func(row record.Row) bool { return re.MatchString(row[pos]) == want }, nil
	default:
		return nil, fmt.Errorf("%w: operator %q", ErrBadPredicate, string(p.Op))
	}
}

// EvaluatePredicate checks a single row.
func EvaluatePredicate(schema record.Schema, row record.Row, p *planner.Predicate) (bool, error) {
	m, err := CompilePredicate(schema, p)
	if err != nil {
		return false, err
	}
	return m(row), nil
}
