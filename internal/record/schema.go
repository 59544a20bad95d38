package record

import (
	"fmt"
	"strings"
)

type ColumnType uint8

const (
	ColInteger ColumnType = iota + 1
	ColDouble
	ColText // UTF-8
	ColDateTime
)

func (t ColumnType) String() string {
	switch t {
	case ColInteger:
		return "Integer"
	case ColDouble:
		return "Double"
	case ColText:
		return "Text"
	case ColDateTime:
		return "DateTime"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// ParseColumnType accepts the canonical names plus the SQL spellings and the
// System.* names found in older table files.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTEGER", "INT", "SYSTEM.INT32", "SYSTEM.INT64":
		return ColInteger, nil
	case "DOUBLE", "FLOAT", "DECIMAL", "SYSTEM.DOUBLE", "SYSTEM.DECIMAL":
		return ColDouble, nil
	case "TEXT", "VARCHAR", "STRING", "SYSTEM.STRING":
		return ColText, nil
	case "DATETIME", "SYSTEM.DATETIME":
		return ColDateTime, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

type Column struct {
	Name string
	Type ColumnType
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColPos returns the position of the named column, or -1.
func (s Schema) ColPos(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}

// Row is one decoded tuple. Values are kept as strings at the storage layer.
type Row []string

func (r Row) Clone() Row {
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}
