package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tuannm99/tinysql/internal/index"
)

var (
	ErrUnknownOperator  = errors.New("planner: unknown operator")
	ErrUnknownDirection = errors.New("planner: unknown sort direction")
)

// Operator is the comparison in a WHERE triple.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "<>"
	OpLt      Operator = "<"
	OpGt      Operator = ">"
	OpLe      Operator = "<="
	OpGe      Operator = ">="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
)

// ParseOperator normalizes case and inner whitespace; "!=" is read as "<>".
func ParseOperator(s string) (Operator, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	switch Operator(norm) {
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe, OpLike, OpNotLike:
		return Operator(norm), nil
	case "!=":
		return OpNe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
}

// Relational reports whether op orders values (<, >, <=, >=).
func (op Operator) Relational() bool {
	switch op {
	case OpLt, OpGt, OpLe, OpGe:
		return true
	}
	return false
}

// Predicate is the single WHERE triple (column, operator, literal).
type Predicate struct {
	Column string
	Op     Operator
	Value  string
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %q", p.Column, p.Op, p.Value)
}

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection defaults to Asc when s is blank.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

type OrderBy struct {
	Column    string
	Direction Direction
}

// Assignment is one "column = literal" of an UPDATE SET list.
type Assignment struct {
	Column string
	Value  string
}

// Plan is the access path chosen for a predicate.
type Plan interface {
	planNode()
	TableName() string
}

// ----- Plan nodes -----

// SeqScanPlan reads every row and filters with Where (nil keeps all rows).
type SeqScanPlan struct {
	Table string
	Where *Predicate
}

func (*SeqScanPlan) planNode() {}
func (p *SeqScanPlan) TableName() string { return p.Table }

// IndexScanPlan asks Index for candidate positions and re-applies Where to
// the rows found there.
type IndexScanPlan struct {
	Table string
	Where Predicate
	Index index.Index
}

func (*IndexScanPlan) planNode() {}
func (p *IndexScanPlan) TableName() string { return p.Table }
