package engine

import (
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"

	"github.com/tuannm99/tinysql/internal/catalog"
	"github.com/tuannm99/tinysql/internal/dberr"
	"github.com/tuannm99/tinysql/internal/heap"
	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// IndexInfo is one index registration.
type IndexInfo = catalog.IndexMeta

// indexDef is a registered index. Registrations are scoped by table name;
// the structure itself is built from the selected database's table file.
type indexDef struct {
	meta catalog.IndexMeta
	kind index.Kind
	live *liveIndex
}

// liveIndex holds positions that are valid only for db's copy of the table
// at generation gen.
type liveIndex struct {
	idx  index.Index
	db   string
	gen  uint64
	keys planner.KeyClass
	// complete is false when duplicate values were skipped during the build.
	complete bool
}

func (d *indexDef) fresh(db string, gen uint64) bool {
	return d.live != nil && d.live.db == db && d.live.gen == gen
}

type createIndexArgs struct {
	Name   string `validate:"required"`
	Table  string `validate:"required"`
	Column string `validate:"required"`
	Kind   string `validate:"required"`
}

func genKey(db, table string) string {
	return record.Fold(db) + "/" + record.Fold(table)
}

// gen returns the rewrite counter of db's copy of table. Positions held by an
// index are valid only for the generation they were built at.
func (s *Store) gen(db, table string) *atomic.Uint64 {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	k := genKey(db, table)
	g, ok := s.gens[k]
	if !ok {
		g = atomic.NewUint64(0)
		s.gens[k] = g
	}
	return g
}

func (s *Store) bumpGen(db, table string) uint64 {
	return s.gen(db, table).Inc()
}

func (s *Store) loadIndices() error {
	metas, err := s.catalog.Indices()
	if err != nil {
		return err
	}
	n := 0
	for _, m := range metas {
		kind, err := index.ParseKind(m.Kind)
		if err != nil {
			s.log.Warn("engine: skipping index registration",
				"index", m.Name, "table", m.Table, "column", m.Column, "err", err)
			continue
		}
		key := record.Fold(m.Table)
		s.defs[key] = append(s.defs[key], &indexDef{meta: m, kind: kind})
		n++
	}
	s.log.Info("engine: index registrations loaded", "count", n)
	return nil
}

func (s *Store) defsFor(table string) []*indexDef {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	return append([]*indexDef(nil), s.defs[record.Fold(table)]...)
}

// defOn returns the registration on column. Column names match exactly, as
// in the schema section, so a and A are distinct columns.
func (s *Store) defOn(table, column string) *indexDef {
	for _, d := range s.defsFor(table) {
		if d.meta.Column == column {
			return d
		}
	}
	return nil
}

// forgetIndices drops the registrations of table unless another database
// still has a table of that name.
func (s *Store) forgetIndices(table, db string) error {
	elsewhere, err := s.catalog.TableElsewhere(table, db)
	if err != nil {
		return err
	}
	if elsewhere {
		return nil
	}
	n, err := s.catalog.UnregisterIndices(table)
	s.idxMu.Lock()
	delete(s.defs, record.Fold(table))
	s.idxMu.Unlock()
	if n > 0 {
		s.log.Info("engine: index registrations removed", "table", table, "count", n)
	}
	return err
}

func (s *Store) newIndex(kind index.Kind) (index.Index, error) {
	opts := []index.Option{index.WithCompare(record.Collate)}
	if s.hashKeys {
		opts = append(opts, index.WithHashedKeys(record.Canonical))
	}
	return index.New(kind, opts...)
}

// build scans tbl into a fresh structure for d. With strict set a duplicate
// value fails the build; otherwise the row is skipped and the index is marked
// incomplete.
func (s *Store) build(db string, tbl *heap.Table, d *indexDef, gen uint64, strict bool) (*liveIndex, error) {
	col := tbl.Schema().ColPos(d.meta.Column)
	if col < 0 {
		return nil, dberr.Newf(dberr.ErrNotFound, "column %s does not exist in %s", d.meta.Column, tbl.Name)
	}
	idx, err := s.newIndex(d.kind)
	if err != nil {
		return nil, err
	}
	live := &liveIndex{idx: idx, db: db, gen: gen, complete: true}
	err = tbl.Scan(func(pos int, row record.Row) error {
		v := row[col]
		if idx.Search(v) != index.NotFound {
			if strict {
				return dberr.Newf(dberr.ErrConflict, "duplicate value %q in %s.%s", v, tbl.Name, d.meta.Column)
			}
			s.log.Warn("engine: duplicate value skipped while building index",
				"index", d.meta.Name, "table", tbl.Name, "column", d.meta.Column, "pos", pos)
			live.complete = false
			return nil
		}
		idx.Insert(v, pos)
		live.keys = live.keys.Merge(planner.ClassOf(v))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordIndexRebuild(d.kind.String())
	s.log.Debug("engine: index built",
		"index", d.meta.Name, "table", tbl.Name, "database", db, "entries", idx.Len())
	return live, nil
}

// ensure makes the usable indices in defs live for db at the table's current
// generation. An index whose column is missing from this database's copy of
// the table is left out of the result.
func (s *Store) ensure(db string, tbl *heap.Table, defs []*indexDef) ([]*indexDef, error) {
	gen := s.gen(db, tbl.Name).Load()
	var usable, stale []*indexDef
	for _, d := range defs {
		if tbl.Schema().ColPos(d.meta.Column) < 0 {
			continue
		}
		usable = append(usable, d)
		if !d.fresh(db, gen) {
			stale = append(stale, d)
		}
	}
	if err := s.rebuild(db, tbl, stale, gen); err != nil {
		return nil, err
	}
	return usable, nil
}

// rebuild builds every def concurrently and swaps the new structures in only
// when all of them succeeded.
func (s *Store) rebuild(db string, tbl *heap.Table, defs []*indexDef, gen uint64) error {
	if len(defs) == 0 {
		return nil
	}
	built := make([]*liveIndex, len(defs))
	p := pool.New().WithErrors()
	for i, d := range defs {
		i, d := i, d
		p.Go(func() error {
			live, err := s.build(db, tbl, d, gen, false)
			if err != nil {
				return err
			}
			built[i] = live
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	for i, d := range defs {
		d.live = built[i]
	}
	return nil
}

// candidate returns the live index on column, or nil when there is none.
func (s *Store) candidate(db string, tbl *heap.Table, column string) (*planner.Candidate, error) {
	d := s.defOn(tbl.Name, column)
	if d == nil {
		return nil, nil
	}
	usable, err := s.ensure(db, tbl, []*indexDef{d})
	if err != nil || len(usable) == 0 {
		return nil, err
	}
	return &planner.Candidate{Index: d.live.idx, Complete: d.live.complete, Keys: d.live.keys}, nil
}

// CreateIndex builds an index of kind (BST or BTREE) over table.column and
// registers it. The column must not hold duplicate values.
func (s *Store) CreateIndex(name, table, column, kind string) (err error) {
	defer s.track("create_index", time.Now(), &err)
	args := createIndexArgs{
		Name:   strings.TrimSpace(name),
		Table:  trimStatement(table),
		Column: strings.TrimSpace(column),
		Kind:   strings.TrimSpace(kind),
	}
	if err := validate.Struct(args); err != nil {
		return dberr.Wrap(dberr.ErrPrecondition, err, "create index")
	}
	if err := validateIdent("index", args.Name); err != nil {
		return err
	}
	if err := validateIdent("column", args.Column); err != nil {
		return err
	}
	k, err := index.ParseKind(args.Kind)
	if err != nil {
		return err
	}

	db, release, err := s.beginTable(args.Table)
	if err != nil {
		return err
	}
	defer release()

	tbl, err := s.openTable(db, args.Table)
	if err != nil {
		return err
	}
	if tbl.Schema().ColPos(args.Column) < 0 {
		return dberr.Newf(dberr.ErrNotFound, "column %s does not exist in %s", args.Column, args.Table)
	}
	if s.defOn(args.Table, args.Column) != nil {
		return dberr.Newf(dberr.ErrConflict, "%s.%s is already indexed", args.Table, args.Column)
	}

	d := &indexDef{
		meta: catalog.IndexMeta{Table: args.Table, Column: args.Column, Name: args.Name, Kind: k.String()},
		kind: k,
	}
	live, err := s.build(db, tbl, d, s.gen(db, args.Table).Load(), true)
	if err != nil {
		return err
	}
	if err := s.catalog.RegisterIndex(d.meta); err != nil {
		return err
	}
	d.live = live

	s.idxMu.Lock()
	key := record.Fold(args.Table)
	s.defs[key] = append(s.defs[key], d)
	s.idxMu.Unlock()

	s.log.Info("engine: index created",
		"index", args.Name, "table", args.Table, "column", args.Column, "kind", k.String(), "entries", live.idx.Len())
	return nil
}

// ShowIndexes lists the registrations for table.
func (s *Store) ShowIndexes(table string) (out []IndexInfo, err error) {
	defer s.track("show_indexes", time.Now(), &err)
	if err := validateIdent("table", trimStatement(table)); err != nil {
		return nil, err
	}
	return s.catalog.IndicesFor(trimStatement(table))
}
