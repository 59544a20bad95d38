package engine

import (
	"errors"
	iofs "io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/tuannm99/tinysql/internal/dberr"
	"github.com/tuannm99/tinysql/internal/heap"
	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/executor"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// legacyIndexSuffix ends the <table>_<column>_index.idx files left by older
// releases.
const legacyIndexSuffix = "_index.idx"

// ShowTables lists the tables of the selected database.
func (s *Store) ShowTables() (names []string, err error) {
	defer s.track("show_tables", time.Now(), &err)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return nil, dberr.Newf(dberr.ErrPrecondition, "no database selected")
	}
	return s.catalog.Tables(s.current)
}

// CreateTable writes the schema section of a new table and registers it.
// Indices already registered under the table name are back-filled.
func (s *Store) CreateTable(name string, columns []record.Column) (err error) {
	defer s.track("create_table", time.Now(), &err)
	name = trimStatement(name)
	db, release, err := s.beginTable(name)
	if err != nil {
		return err
	}
	defer release()

	if len(columns) == 0 {
		return dberr.Newf(dberr.ErrPrecondition, "table %s needs at least one column", name)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if err := validateIdent("column", c.Name); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return dberr.Newf(dberr.ErrConflict, "duplicate column %s in %s", c.Name, name)
		}
		seen[c.Name] = struct{}{}
	}

	dir := s.dbDir(db)
	if ok, err := heap.Exists(s.fs, dir, name); err != nil {
		return err
	} else if ok {
		return dberr.Newf(dberr.ErrConflict, "table %s already exists in %s", name, db)
	}
	if ok, err := s.catalog.HasTable(db, name); err != nil {
		return err
	} else if ok {
		return dberr.Newf(dberr.ErrConflict, "table %s is already registered in %s", name, db)
	}

	tbl, err := heap.Create(s.fs, dir, name, record.Schema{Cols: columns})
	if err != nil {
		return err
	}
	if err := s.catalog.RegisterTable(db, name); err != nil {
		return err
	}
	s.bumpGen(db, name)

	if defs := s.defsFor(name); len(defs) > 0 {
		if _, err := s.ensure(db, tbl, defs); err != nil {
			return err
		}
	}
	s.log.Info("engine: table created", "database", db, "table", name, "columns", len(columns))
	return nil
}

// DescribeTable returns the schema section of table.
func (s *Store) DescribeTable(name string) (cols []record.Column, err error) {
	defer s.track("describe_table", time.Now(), &err)
	name = trimStatement(name)
	db, release, err := s.beginTable(name)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.openTable(db, name)
	if err != nil {
		return nil, err
	}
	return append([]record.Column(nil), tbl.Schema().Cols...), nil
}

// DropTable removes the table file, its ledger line, legacy index files and
// the index registrations of the table name. Every step is attempted; the
// drop fails if any step failed.
func (s *Store) DropTable(name string) (err error) {
	defer s.track("drop_table", time.Now(), &err)
	name = trimStatement(name)
	db, release, err := s.beginTable(name)
	if err != nil {
		return err
	}
	defer release()

	dir := s.dbDir(db)
	onDisk, err := heap.Exists(s.fs, dir, name)
	if err != nil {
		return err
	}
	listed, err := s.catalog.HasTable(db, name)
	if err != nil {
		return err
	}
	if !onDisk && !listed {
		return dberr.Newf(dberr.ErrNotFound, "table %s does not exist in %s", name, db)
	}

	var errs error
	if onDisk {
		if tbl, oerr := heap.Open(s.fs, dir, name); oerr == nil {
			errs = multierr.Append(errs, tbl.Drop())
		} else {
			// unreadable schema; the file still goes
			errs = multierr.Append(errs, s.fs.Remove(heap.FilePath(dir, name)))
		}
	}
	if listed {
		errs = multierr.Append(errs, s.catalog.UnregisterTable(db, name))
	}
	legacy, lerr := s.legacyIndexFiles(db, dir, name)
	errs = multierr.Append(errs, lerr)
	for _, path := range legacy {
		errs = multierr.Append(errs, s.fs.Remove(path))
	}
	errs = multierr.Append(errs, s.forgetIndices(name, db))
	s.bumpGen(db, name)

	if errs != nil {
		return errs
	}
	s.log.Info("engine: table dropped", "database", db, "table", name, "legacy_index_files", len(legacy))
	return nil
}

// legacyIndexFiles lists the legacy index files of table in dir. A file that
// also fits a longer table name sharing the prefix (a_b for a) belongs to
// that table. Names are matched literally.
func (s *Store) legacyIndexFiles(db, dir, table string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	others, err := s.catalog.Tables(db)
	if err != nil {
		return nil, err
	}
	owned := func(file, t string) bool {
		return strings.HasPrefix(file, t+"_") && len(file) > len(t)+1+len(legacyIndexSuffix)
	}

	var out []string
	for _, fi := range infos {
		file := fi.Name()
		if fi.IsDir() || !strings.HasSuffix(file, legacyIndexSuffix) || !owned(file, table) {
			continue
		}
		claimed := slices.ContainsFunc(others, func(o string) bool {
			return len(o) > len(table) && owned(file, o)
		})
		if !claimed {
			out = append(out, filepath.Join(dir, file))
		}
	}
	return out, nil
}

// normalizeWhere returns where with its operator in canonical form.
func normalizeWhere(where *planner.Predicate) (*planner.Predicate, error) {
	if where == nil {
		return nil, nil
	}
	op, err := planner.ParseOperator(string(where.Op))
	if err != nil {
		return nil, err
	}
	return &planner.Predicate{Column: where.Column, Op: op, Value: where.Value}, nil
}

// Select returns the rows of table matching where, ordered by ob when given,
// projected onto columns ("*" or none means every column). No match is an
// empty result.
func (s *Store) Select(table string, columns []string, where *planner.Predicate, ob *planner.OrderBy) (res *executor.Result, err error) {
	defer s.track("select", time.Now(), &err)
	table = trimStatement(table)
	db, release, err := s.beginTable(table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.openTable(db, table)
	if err != nil {
		return nil, err
	}
	if where, err = normalizeWhere(where); err != nil {
		return nil, err
	}
	if err := checkPredicate(tbl, where); err != nil {
		return nil, err
	}
	if ob != nil {
		dir, err := planner.ParseDirection(string(ob.Direction))
		if err != nil {
			return nil, err
		}
		ob = &planner.OrderBy{Column: ob.Column, Direction: dir}
	}

	var cand *planner.Candidate
	if where != nil {
		if cand, err = s.candidate(db, tbl, where.Column); err != nil {
			return nil, err
		}
	}
	return s.exec.Select(tbl, planner.BuildPlan(table, where, cand), columns, ob)
}

// checkPredicate rejects a predicate on a column the table does not have.
func checkPredicate(tbl *heap.Table, where *planner.Predicate) error {
	if where == nil {
		return nil
	}
	if tbl.Schema().ColPos(where.Column) < 0 {
		return dberr.Newf(dberr.ErrFormat, "predicate column %s does not exist in %s", where.Column, tbl.Name)
	}
	return nil
}

// Insert appends one row. A value that already exists in an index on its
// column is a conflict and nothing is written.
func (s *Store) Insert(table string, values []string) (err error) {
	defer s.track("insert", time.Now(), &err)
	table = trimStatement(table)
	db, release, err := s.beginTable(table)
	if err != nil {
		return err
	}
	defer release()

	tbl, err := s.openTable(db, table)
	if err != nil {
		return err
	}
	schema := tbl.Schema()
	if len(values) != schema.NumCols() {
		return dberr.Newf(dberr.ErrFormat, "%s has %d columns, got %d values", table, schema.NumCols(), len(values))
	}
	if _, err := record.EncodeRow(values); err != nil {
		return err
	}

	defs, err := s.ensure(db, tbl, s.defsFor(table))
	if err != nil {
		return err
	}
	cols := make([]int, len(defs))
	for i, d := range defs {
		cols[i] = schema.ColPos(d.meta.Column)
		if d.live.idx.Search(values[cols[i]]) != index.NotFound {
			return dberr.Newf(dberr.ErrConflict, "duplicate value %q for indexed column %s.%s",
				values[cols[i]], table, d.meta.Column)
		}
	}

	pos, err := tbl.Append(record.Row(values).Clone())
	if err != nil {
		return err
	}
	// appends do not move existing rows, so the live indices stay current
	for i, d := range defs {
		v := values[cols[i]]
		d.live.idx.Insert(v, pos)
		d.live.keys = d.live.keys.Merge(planner.ClassOf(v))
	}
	return nil
}

// InsertValues is Insert for typed Go literals; nil stores an empty value.
func (s *Store) InsertValues(table string, values ...any) error {
	strs, err := record.Stringify(values...)
	if err != nil {
		return classify(err)
	}
	return s.Insert(table, strs)
}

// mutationWhere normalizes where and checks the predicate shape accepted by
// Update and Delete.
func mutationWhere(op string, tbl *heap.Table, where *planner.Predicate) (*planner.Predicate, error) {
	if where == nil {
		return nil, dberr.Newf(dberr.ErrFormat, "%s requires a single column = value predicate", op)
	}
	where, err := normalizeWhere(where)
	if err != nil {
		return nil, err
	}
	if where.Op != planner.OpEq {
		return nil, dberr.Newf(dberr.ErrFormat, "%s requires a single column = value predicate", op)
	}
	return where, checkPredicate(tbl, where)
}

// Update sets columns on the rows matching where (an equality predicate) and
// returns how many rows matched.
func (s *Store) Update(table string, set []planner.Assignment, where *planner.Predicate) (n int64, err error) {
	defer s.track("update", time.Now(), &err)
	table = trimStatement(table)
	if len(set) == 0 {
		return 0, dberr.Newf(dberr.ErrFormat, "update of %s has no assignments", table)
	}
	db, release, err := s.beginTable(table)
	if err != nil {
		return 0, err
	}
	defer release()

	tbl, err := s.openTable(db, table)
	if err != nil {
		return 0, err
	}
	if where, err = mutationWhere("update", tbl, where); err != nil {
		return 0, err
	}
	schema := tbl.Schema()
	touched := map[int]bool{schema.ColPos(where.Column): true}
	setPos := make([]int, len(set))
	for i, a := range set {
		setPos[i] = schema.ColPos(a.Column)
		if setPos[i] < 0 {
			return 0, dberr.Newf(dberr.ErrNotFound, "column %s does not exist in %s", a.Column, table)
		}
		touched[setPos[i]] = true
	}

	cand, err := s.candidate(db, tbl, where.Column)
	if err != nil {
		return 0, err
	}
	matches, err := s.exec.Filter(tbl, planner.BuildPlan(table, where, cand))
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, dberr.Newf(dberr.ErrNoMatch, "update %s where %s", table, where.String())
	}

	rows, err := tbl.ReadAll()
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		for i, a := range set {
			rows[m.Pos][setPos[i]] = a.Value
		}
	}
	if err := s.checkUnique(tbl, rows, matches, setPos); err != nil {
		return 0, err
	}

	if err := tbl.Rewrite(rows); err != nil {
		return 0, err
	}
	gen := s.bumpGen(db, table)

	var stale []*indexDef
	for _, d := range s.defsFor(table) {
		col := schema.ColPos(d.meta.Column)
		switch {
		case col < 0:
		case touched[col]:
			stale = append(stale, d)
		case d.fresh(db, gen-1):
			// values and positions of this column are unchanged
			d.live.gen = gen
		}
	}
	if err := s.rebuild(db, tbl, stale, gen); err != nil {
		return 0, err
	}
	s.log.Debug("engine: rows updated", "table", table, "rows", len(matches), "rebuilt_indices", len(stale))
	return int64(len(matches)), nil
}

// checkUnique rejects an update that would leave an updated row sharing an
// indexed value with another row.
func (s *Store) checkUnique(tbl *heap.Table, rows []record.Row, matches []executor.Match, setPos []int) error {
	schema := tbl.Schema()
	for _, d := range s.defsFor(tbl.Name) {
		col := schema.ColPos(d.meta.Column)
		if col < 0 || !slices.Contains(setPos, col) {
			continue
		}
		counts := make(map[string]int, len(rows))
		for _, r := range rows {
			counts[record.Canonical(r[col])]++
		}
		for _, m := range matches {
			v := rows[m.Pos][col]
			if counts[record.Canonical(v)] > 1 {
				return dberr.Newf(dberr.ErrConflict, "duplicate value %q for indexed column %s.%s",
					v, tbl.Name, d.meta.Column)
			}
		}
	}
	return nil
}

// Delete removes the rows matching where (an equality predicate) and returns
// how many were removed. Every index on the table is rebuilt since positions
// shift.
func (s *Store) Delete(table string, where *planner.Predicate) (n int64, err error) {
	defer s.track("delete", time.Now(), &err)
	table = trimStatement(table)
	db, release, err := s.beginTable(table)
	if err != nil {
		return 0, err
	}
	defer release()

	tbl, err := s.openTable(db, table)
	if err != nil {
		return 0, err
	}
	if where, err = mutationWhere("delete", tbl, where); err != nil {
		return 0, err
	}

	cand, err := s.candidate(db, tbl, where.Column)
	if err != nil {
		return 0, err
	}
	matches, err := s.exec.Filter(tbl, planner.BuildPlan(table, where, cand))
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, dberr.Newf(dberr.ErrNoMatch, "delete from %s where %s", table, where.String())
	}

	rows, err := tbl.ReadAll()
	if err != nil {
		return 0, err
	}
	// matches are in ascending position order; remove from the back
	for i := len(matches) - 1; i >= 0; i-- {
		p := matches[i].Pos
		rows = slices.Delete(rows, p, p+1)
	}
	if err := tbl.Rewrite(rows); err != nil {
		return 0, err
	}
	gen := s.bumpGen(db, table)

	var defs []*indexDef
	for _, d := range s.defsFor(table) {
		if tbl.Schema().ColPos(d.meta.Column) >= 0 {
			defs = append(defs, d)
		}
	}
	if err := s.rebuild(db, tbl, defs, gen); err != nil {
		return 0, err
	}
	s.log.Debug("engine: rows deleted", "table", table, "rows", len(matches), "rebuilt_indices", len(defs))
	return int64(len(matches)), nil
}
