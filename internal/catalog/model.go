package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedLine = errors.New("catalog: malformed ledger line")

// TableMeta is one line of the tables ledger: "database,table".
type TableMeta struct {
	Database string
	Name     string
}

func (m TableMeta) Line() string { return m.Database + "," + m.Name }

func parseTableLine(line string) (TableMeta, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TableMeta{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	return TableMeta{Database: strings.TrimSpace(parts[0]), Name: strings.TrimSpace(parts[1])}, nil
}

// IndexMeta is one line of the indices ledger:
// "table,column,indexName,indexKind". Registrations are scoped by table
// name only.
type IndexMeta struct {
	Table  string
	Column string
	Name   string
	Kind   string
}

func (m IndexMeta) Line() string {
	return strings.Join([]string{m.Table, m.Column, m.Name, m.Kind}, ",")
}

func parseIndexLine(line string) (IndexMeta, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return IndexMeta{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return IndexMeta{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
	}
	return IndexMeta{Table: parts[0], Column: parts[1], Name: parts[2], Kind: parts[3]}, nil
}
