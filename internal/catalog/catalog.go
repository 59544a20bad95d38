// Package catalog keeps the three system ledgers (databases, tables,
// indices) under <root>/SystemCatalog. Name comparisons are
// case-insensitive.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	Dir           = "SystemCatalog"
	DatabasesFile = "SystemDatabases.table"
	TablesFile    = "SystemTables.table"
	IndicesFile   = "SystemIndices.table"
)

var ErrExists = errors.New("catalog: entry already registered")

// Catalog serializes access to the ledgers; it is safe for concurrent use.
type Catalog struct {
	mu        sync.Mutex
	databases *ledger
	tables    *ledger
	indices   *ledger
	log       *slog.Logger
}

// Open creates the catalog directory and any missing ledger under root.
func Open(fs afero.Fs, root string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, Dir)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create %s: %w", dir, err)
	}
	c := &Catalog{
		databases: &ledger{fs: fs, path: filepath.Join(dir, DatabasesFile)},
		tables:    &ledger{fs: fs, path: filepath.Join(dir, TablesFile)},
		indices:   &ledger{fs: fs, path: filepath.Join(dir, IndicesFile)},
		log:       logger,
	}
	for _, l := range []*ledger{c.databases, c.tables, c.indices} {
		if err := l.ensure(); err != nil {
			return nil, fmt.Errorf("catalog: init %s: %w", l.path, err)
		}
	}
	return c, nil
}

// ---- databases ----

// Databases lists database names in ledger order.
func (c *Catalog) Databases() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.databases.lines()
}

func (c *Catalog) HasDatabase(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasDatabase(name)
}

func (c *Catalog) hasDatabase(name string) (bool, error) {
	lines, err := c.databases.lines()
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if strings.EqualFold(line, name) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Catalog) RegisterDatabase(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok, err := c.hasDatabase(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: database %s", ErrExists, name)
	}
	return c.databases.append(name)
}

// UnregisterDatabase removes the database line and every table line of that
// database. It returns the names of the tables that were registered.
func (c *Catalog) UnregisterDatabase(name string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dropped []string
	_, err := c.tables.remove(func(line string) bool {
		m, perr := parseTableLine(line)
		if perr != nil || !strings.EqualFold(m.Database, name) {
			return false
		}
		dropped = append(dropped, m.Name)
		return true
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.databases.remove(func(line string) bool { return strings.EqualFold(line, name) }); err != nil {
		return dropped, err
	}
	return dropped, nil
}

// ---- tables ----

func (c *Catalog) tableMetas() ([]TableMeta, error) {
	lines, err := c.tables.lines()
	if err != nil {
		return nil, err
	}
	out := make([]TableMeta, 0, len(lines))
	for _, line := range lines {
		m, err := parseTableLine(line)
		if err != nil {
			c.log.Warn("catalog: skipping table entry", "line", line, "err", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Tables lists the tables registered for db in ledger order.
func (c *Catalog) Tables(db string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	metas, err := c.tableMetas()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range metas {
		if strings.EqualFold(m.Database, db) {
			out = append(out, m.Name)
		}
	}
	return out, nil
}

func (c *Catalog) HasTable(db, table string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasTable(func(m TableMeta) bool {
		return strings.EqualFold(m.Database, db) && strings.EqualFold(m.Name, table)
	})
}

// TableElsewhere reports whether a database other than db registers table.
func (c *Catalog) TableElsewhere(table, db string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasTable(func(m TableMeta) bool {
		return !strings.EqualFold(m.Database, db) && strings.EqualFold(m.Name, table)
	})
}

func (c *Catalog) hasTable(match func(TableMeta) bool) (bool, error) {
	metas, err := c.tableMetas()
	if err != nil {
		return false, err
	}
	for _, m := range metas {
		if match(m) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Catalog) RegisterTable(db, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok, err := c.hasTable(func(m TableMeta) bool {
		return strings.EqualFold(m.Database, db) && strings.EqualFold(m.Name, table)
	})
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: table %s.%s", ErrExists, db, table)
	}
	return c.tables.append(TableMeta{Database: db, Name: table}.Line())
}

func (c *Catalog) UnregisterTable(db, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.tables.remove(func(line string) bool {
		m, perr := parseTableLine(line)
		return perr == nil && strings.EqualFold(m.Database, db) && strings.EqualFold(m.Name, table)
	})
	return err
}

// ---- indices ----

func (c *Catalog) indexMetas() ([]IndexMeta, error) {
	lines, err := c.indices.lines()
	if err != nil {
		return nil, err
	}
	out := make([]IndexMeta, 0, len(lines))
	for _, line := range lines {
		m, err := parseIndexLine(line)
		if err != nil {
			c.log.Warn("catalog: skipping index entry", "line", line, "err", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Indices lists every index registration in ledger order.
func (c *Catalog) Indices() ([]IndexMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexMetas()
}

// IndicesFor lists the registrations for table.
func (c *Catalog) IndicesFor(table string) ([]IndexMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	metas, err := c.indexMetas()
	if err != nil {
		return nil, err
	}
	var out []IndexMeta
	for _, m := range metas {
		if strings.EqualFold(m.Table, table) {
			out = append(out, m)
		}
	}
	return out, nil
}

// RegisterIndex appends m unless (table, column) already has an index. Table
// names fold case; column names do not.
func (c *Catalog) RegisterIndex(m IndexMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	metas, err := c.indexMetas()
	if err != nil {
		return err
	}
	for _, have := range metas {
		if strings.EqualFold(have.Table, m.Table) && have.Column == m.Column {
			return fmt.Errorf("%w: index on %s.%s", ErrExists, m.Table, m.Column)
		}
	}
	return c.indices.append(m.Line())
}

// UnregisterIndices removes every registration for table and returns how
// many were removed.
func (c *Catalog) UnregisterIndices(table string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indices.remove(func(line string) bool {
		m, perr := parseIndexLine(line)
		return perr == nil && strings.EqualFold(m.Table, table)
	})
}
