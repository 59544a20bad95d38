package record

import (
	"errors"
	"fmt"
	"strings"
)

// On-disk format:
//
//	schema line: name,Type
//	row line:    (v1,,v2,,...,vn)
const (
	RowOpen   = "("
	RowClose  = ")"
	Separator = ",,"

	schemaSep = ","
)

var (
	ErrMalformedRow    = errors.New("rowcodec: malformed row line")
	ErrMalformedSchema = errors.New("rowcodec: malformed schema line")
	ErrArityMismatch   = errors.New("rowcodec: row arity does not match schema")
	ErrUnencodable     = errors.New("rowcodec: value cannot be encoded")
	ErrUnknownType     = errors.New("rowcodec: unknown column type")
)

// EncodeSchemaLine renders one column definition.
func EncodeSchemaLine(col Column) (string, error) {
	if col.Name == "" || strings.ContainsAny(col.Name, ",\r\n") || strings.HasPrefix(col.Name, RowOpen) {
		return "", fmt.Errorf("%w: column name %q", ErrMalformedSchema, col.Name)
	}
	return col.Name + schemaSep + col.Type.String(), nil
}

// DecodeSchemaLine parses "name,Type".
func DecodeSchemaLine(line string) (Column, error) {
	parts := strings.Split(line, schemaSep)
	if len(parts) != 2 {
		return Column{}, fmt.Errorf("%w: %q", ErrMalformedSchema, line)
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Column{}, fmt.Errorf("%w: empty column name in %q", ErrMalformedSchema, line)
	}
	typ, err := ParseColumnType(parts[1])
	if err != nil {
		return Column{}, err
	}
	return Column{Name: name, Type: typ}, nil
}

// IsRowLine reports whether line belongs to the data section.
func IsRowLine(line string) bool { return strings.HasPrefix(line, RowOpen) }

// EncodeRow joins values with the doubled separator inside the boundary markers.
// A value that would be ambiguous after joining is rejected.
func EncodeRow(values []string) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("%w: empty row", ErrUnencodable)
	}
	for i, v := range values {
		if err := checkEncodable(v); err != nil {
			return "", fmt.Errorf("%w (value %d)", err, i)
		}
	}
	return RowOpen + strings.Join(values, Separator) + RowClose, nil
}

func checkEncodable(v string) error {
	switch {
	case strings.ContainsAny(v, "\r\n"):
		return fmt.Errorf("%w: line break in %q", ErrUnencodable, v)
	case strings.Contains(v, Separator):
		return fmt.Errorf("%w: separator in %q", ErrUnencodable, v)
	case strings.HasPrefix(v, ","), strings.HasSuffix(v, ","):
		// would merge with an adjacent separator
		return fmt.Errorf("%w: edge comma in %q", ErrUnencodable, v)
	}
	return nil
}

// DecodeRow strips the boundary markers and splits on the doubled separator.
// Single commas inside a value are kept.
func DecodeRow(line string) (Row, error) {
	line = strings.TrimRight(line, "\r")
	if len(line) < len(RowOpen)+len(RowClose) ||
		!strings.HasPrefix(line, RowOpen) || !strings.HasSuffix(line, RowClose) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRow, line)
	}
	body := line[len(RowOpen) : len(line)-len(RowClose)]
	return Row(strings.Split(body, Separator)), nil
}

// DecodeRowFor decodes line and checks its arity against schema.
func DecodeRowFor(s Schema, line string) (Row, error) {
	row, err := DecodeRow(line)
	if err != nil {
		return nil, err
	}
	if len(row) != s.NumCols() {
		return nil, fmt.Errorf("%w: got %d values, schema has %d", ErrArityMismatch, len(row), s.NumCols())
	}
	return row, nil
}
