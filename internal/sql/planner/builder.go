package planner

import (
	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/record"
)

// KeyClass summarizes the keys held by an index.
type KeyClass uint8

const (
	KeysEmpty KeyClass = iota
	KeysNumeric
	KeysText
	KeysMixed
)

// ClassOf returns KeysNumeric or KeysText for a single value.
func ClassOf(v string) KeyClass {
	if record.IsNumeric(v) {
		return KeysNumeric
	}
	return KeysText
}

// Merge folds one more key class into c.
func (c KeyClass) Merge(o KeyClass) KeyClass {
	switch {
	case c == KeysEmpty:
		return o
	case o == KeysEmpty || c == o:
		return c
	default:
		return KeysMixed
	}
}

// Candidate is a live index on the predicate column.
type Candidate struct {
	Index index.Index
	// Complete is false when rows were left out of the index (duplicates
	// skipped during a rebuild).
	Complete bool
	Keys     KeyClass
}

// BuildPlan picks the access path for where on table. The index is used only
// when its candidate set is guaranteed to contain every matching row.
func BuildPlan(table string, where *Predicate, c *Candidate) Plan {
	if where == nil || c == nil || c.Index == nil || !c.Complete {
		return &SeqScanPlan{Table: table, Where: where}
	}
	if !usable(where, c) {
		return &SeqScanPlan{Table: table, Where: where}
	}
	return &IndexScanPlan{Table: table, Where: *where, Index: c.Index}
}

func usable(where *Predicate, c *Candidate) bool {
	switch {
	case where.Op == OpEq, where.Op == OpLike, where.Op == OpNotLike:
		return true
	case where.Op.Relational():
		if !c.Index.Ordered() {
			return false
		}
		// collation order matches evaluation order only within one class
		return c.Keys == KeysEmpty || c.Keys == ClassOf(where.Value)
	default:
		return false
	}
}
