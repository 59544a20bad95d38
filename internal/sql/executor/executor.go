// Package executor evaluates plans against a table: predicate filtering by
// sequential or index scan, stable ordering, and projection.
package executor

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// Access path labels passed to the scan observer.
const (
	AccessSeq   = "seq"
	AccessIndex = "index"
)

// Source is the table being read.
type Source interface {
	Schema() record.Schema
	Scan(fn func(pos int, row record.Row) error) error
	Rows(positions []int) ([]record.Row, error)
}

// ScanObserver is told how many rows an access path examined.
type ScanObserver func(access string, rows int)

// Executor is stateless apart from its logger and observer; one instance
// serves every table.
type Executor struct {
	log     *slog.Logger
	observe ScanObserver
}

func New(logger *slog.Logger, observe ScanObserver) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string, int) {}
	}
	return &Executor{log: logger, observe: observe}
}

// Match is a qualifying row and its position in the data section.
type Match struct {
	Pos int
	Row record.Row
}

// Filter returns the rows satisfying the plan's predicate in data-section
// order, whatever the access path.
func (e *Executor) Filter(src Source, plan planner.Plan) ([]Match, error) {
	schema := src.Schema()
	switch p := plan.(type) {
	case *planner.SeqScanPlan:
		match, err := CompilePredicate(schema, p.Where)
		if err != nil {
			return nil, err
		}
		var out []Match
		scanned := 0
		err = src.Scan(func(pos int, row record.Row) error {
			scanned++
			if match(row) {
				out = append(out, Match{Pos: pos, Row: row})
			}
			return nil
		})
		e.observe(AccessSeq, scanned)
		return out, err

	case *planner.IndexScanPlan:
		match, err := CompilePredicate(schema, &p.Where)
		if err != nil {
			return nil, err
		}
		positions, err := Lookup(p.Index, p.Where)
		if err != nil {
			return nil, err
		}
		positions = sortUnique(positions)
		rows, err := src.Rows(positions)
		if err != nil {
			return nil, err
		}
		e.observe(AccessIndex, len(rows))

		out := make([]Match, 0, len(rows))
		for i, row := range rows {
			// the index may over-approximate (hash collisions, collation)
			if match(row) {
				out = append(out, Match{Pos: positions[i], Row: row})
			}
		}
		e.log.Debug("executor: index scan",
			"table", p.Table, "where", p.Where.String(),
			"candidates", len(positions), "matched", len(out))
		return out, nil

	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", plan)
	}
}

// Select filters, orders and projects. Projection and ORDER BY columns are
// checked before any row is read.
func (e *Executor) Select(src Source, plan planner.Plan, columns []string, ob *planner.OrderBy) (*Result, error) {
	schema := src.Schema()
	proj, err := NewProjection(schema, columns)
	if err != nil {
		return nil, err
	}
	if ob != nil && schema.ColPos(ob.Column) < 0 {
		return nil, fmt.Errorf("%w in ORDER BY: %s", ErrUnknownColumn, ob.Column)
	}

	matches, err := e.Filter(src, plan)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Row, len(matches))
	for i, m := range matches {
		rows[i] = m.Row
	}
	if ob != nil {
		if err := SortRows(schema, rows, *ob); err != nil {
			return nil, err
		}
	}

	res := &Result{Columns: proj.Columns, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		res.Rows = append(res.Rows, proj.Apply(row))
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func sortUnique(in []int) []int {
	if len(in) < 2 {
		return in
	}
	out := append([]int(nil), in...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
