// Package heap owns table files: a schema section of "name,Type" lines
// followed by a data section of encoded rows. A row's position is its ordinal
// in the data section.
package heap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tuannm99/tinysql/internal/record"
)

// FileExt is appended to the table name to form its file name.
const FileExt = ".table"

var (
	ErrTableNotFound = errors.New("heap: table file not found")
	ErrTableExists   = errors.New("heap: table file already exists")
	ErrNoColumns     = errors.New("heap: table needs at least one column")
	ErrPosition      = errors.New("heap: row position out of range")
)

// Table is a handle on one table file. The schema is read once at Open.
type Table struct {
	Name   string
	Path   string
	schema record.Schema
	fs     afero.Fs
}

// FilePath returns the file backing table name inside dir.
func FilePath(dir, name string) string {
	return filepath.Join(dir, name+FileExt)
}

// Create writes a new table file containing only the schema section.
func Create(fs afero.Fs, dir, name string, schema record.Schema) (*Table, error) {
	if schema.NumCols() == 0 {
		return nil, ErrNoColumns
	}
	path := FilePath(dir, name)
	if ok, err := afero.Exists(fs, path); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	var b strings.Builder
	for _, col := range schema.Cols {
		line, err := record.EncodeSchemaLine(col)
		if err != nil {
			return nil, err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := afero.WriteFile(fs, path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("heap: create %s: %w", name, err)
	}
	return &Table{Name: name, Path: path, schema: schema, fs: fs}, nil
}

// Open loads the schema section of an existing table file.
func Open(fs afero.Fs, dir, name string) (*Table, error) {
	t := &Table{Name: name, Path: FilePath(dir, name), fs: fs}
	f, err := fs.Open(t.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := readLine(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		if record.IsRowLine(line) {
			break
		}
		col, err := record.DecodeSchemaLine(line)
		if err != nil {
			return nil, fmt.Errorf("heap: table %s: %w", name, err)
		}
		t.schema.Cols = append(t.schema.Cols, col)
	}
	if t.schema.NumCols() == 0 {
		return nil, fmt.Errorf("heap: table %s: %w", name, record.ErrMalformedSchema)
	}
	return t, nil
}

// Exists reports whether the table file for name is present in dir.
func Exists(fs afero.Fs, dir, name string) (bool, error) {
	return afero.Exists(fs, FilePath(dir, name))
}

func (t *Table) Schema() record.Schema { return t.schema }

// readLine returns the next line without its terminator. The last line may
// lack a trailing newline.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// Scan calls fn for every row in file order. Returning an error from fn
// stops the scan and is passed through.
func (t *Table) Scan(fn func(pos int, row record.Row) error) error {
	f, err := t.fs.Open(t.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTableNotFound, t.Name)
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	pos := 0
	for {
		line, err := readLine(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !record.IsRowLine(line) {
			continue
		}
		row, err := record.DecodeRowFor(t.schema, line)
		if err != nil {
			return fmt.Errorf("heap: table %s row %d: %w", t.Name, pos, err)
		}
		if err := fn(pos, row); err != nil {
			return err
		}
		pos++
	}
}

// ReadAll returns every row in file order.
func (t *Table) ReadAll() ([]record.Row, error) {
	var rows []record.Row
	err := t.Scan(func(_ int, row record.Row) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// Count returns the number of rows in the data section.
func (t *Table) Count() (int, error) {
	n := 0
	err := t.Scan(func(int, record.Row) error {
		n++
		return nil
	})
	return n, err
}

// Rows returns the rows at the given positions, in the order requested.
func (t *Table) Rows(positions []int) ([]record.Row, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	want := make(map[int]record.Row, len(positions))
	for _, p := range positions {
		want[p] = nil
	}
	if err := t.Scan(func(pos int, row record.Row) error {
		if _, ok := want[pos]; ok {
			want[pos] = row
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]record.Row, 0, len(positions))
	for _, p := range positions {
		row := want[p]
		if row == nil {
			return nil, fmt.Errorf("%w: %d in %s", ErrPosition, p, t.Name)
		}
		out = append(out, row)
	}
	return out, nil
}

// Append writes one row at the end of the file and returns its position.
func (t *Table) Append(row record.Row) (int, error) {
	line, err := t.encode(row)
	if err != nil {
		return 0, err
	}
	pos, err := t.Count()
	if err != nil {
		return 0, err
	}
	f, err := t.fs.OpenFile(t.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("heap: append to %s: %w", t.Name, err)
	}
	return pos, f.Close()
}

// Rewrite replaces the data section with rows. The new content is written to
// a sibling file and renamed over the old one, so a failed write leaves the
// previous file intact.
func (t *Table) Rewrite(rows []record.Row) error {
	var b strings.Builder
	for _, col := range t.schema.Cols {
		line, err := record.EncodeSchemaLine(col)
		if err != nil {
			return err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, row := range rows {
		line, err := t.encode(row)
		if err != nil {
			return err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	tmp := t.Path + ".tmp"
	if err := afero.WriteFile(t.fs, tmp, []byte(b.String()), 0o644); err != nil {
		_ = t.fs.Remove(tmp)
		return fmt.Errorf("heap: rewrite %s: %w", t.Name, err)
	}
	if err := t.fs.Rename(tmp, t.Path); err != nil {
		_ = t.fs.Remove(tmp)
		return fmt.Errorf("heap: rewrite %s: %w", t.Name, err)
	}
	return nil
}

func (t *Table) encode(row record.Row) (string, error) {
	if len(row) != t.schema.NumCols() {
		return "", fmt.Errorf("%w: got %d values, %s has %d columns",
			record.ErrArityMismatch, len(row), t.Name, t.schema.NumCols())
	}
	return record.EncodeRow(row)
}

// Drop removes the table file.
func (t *Table) Drop() error {
	if err := t.fs.Remove(t.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTableNotFound, t.Name)
		}
		return err
	}
	return nil
}
