package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// Projection maps full rows to the requested columns.
type Projection struct {
	Columns []string
	idx     []int
}

// NewProjection resolves columns against schema. "*" (or no columns at all)
// expands to every column in schema order and may be mixed with names.
func NewProjection(schema record.Schema, columns []string) (*Projection, error) {
	p := &Projection{}
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	for _, name := range columns {
		name = strings.TrimSpace(name)
		if name == "*" {
			for i, c := range schema.Cols {
				p.Columns = append(p.Columns, c.Name)
				p.idx = append(p.idx, i)
			}
			continue
		}
		pos := schema.ColPos(name)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		p.Columns = append(p.Columns, schema.Cols[pos].Name)
		p.idx = append(p.idx, pos)
	}
	return p, nil
}

func (p *Projection) Apply(row record.Row) []string {
	out := make([]string, len(p.idx))
	for i, pos := range p.idx {
		out[i] = row[pos]
	}
	return out
}

// Project is the single-row form of NewProjection + Apply.
func Project(schema record.Schema, row record.Row, columns []string) ([]string, error) {
	p, err := NewProjection(schema, columns)
	if err != nil {
		return nil, err
	}
	return p.Apply(row), nil
}

// SortRows orders rows in place by one column. Values compare numerically
// when both parse as numbers and case-insensitively otherwise. The sort is
// stable in both directions.
func SortRows(schema record.Schema, rows []record.Row, ob planner.OrderBy) error {
	pos := schema.ColPos(ob.Column)
	if pos < 0 {
		return fmt.Errorf("%w in ORDER BY: %s", ErrUnknownColumn, ob.Column)
	}
	desc := ob.Direction == planner.Desc
	sort.SliceStable(rows, func(i, j int) bool {
		c := record.CompareValues(rows[i][pos], rows[j][pos])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return nil
}
