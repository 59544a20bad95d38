// Package engine is the operation surface of the storage engine. A Store owns
// the catalog, the table files of the selected database and the live index
// structures built over them.
package engine

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tuannm99/tinysql/internal/catalog"
	"github.com/tuannm99/tinysql/internal/dberr"
	"github.com/tuannm99/tinysql/internal/heap"
	"github.com/tuannm99/tinysql/internal/index"
	"github.com/tuannm99/tinysql/internal/lock"
	"github.com/tuannm99/tinysql/internal/metrics"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/executor"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// DatabasesDir holds one directory per database under the storage root.
const DatabasesDir = "Databases"

// Multiway index key modes.
const (
	KeyValue = "value"
	KeyHash  = "hash"
)

var validate = validator.New()

// Options configures Open.
type Options struct {
	// Root is the storage root; Databases/ and the catalog ledgers live under it.
	Root string
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// MultiwayKey is KeyValue (default) or KeyHash.
	MultiwayKey string
	Logger      *slog.Logger
	// Metrics defaults to a fresh private registry.
	Metrics *metrics.Registry
}

// Store is safe for concurrent use. Database-level operations are exclusive;
// table-level operations share the store and serialize per table.
type Store struct {
	mu      sync.RWMutex
	fs      afero.Fs
	root    string
	current string

	catalog *catalog.Catalog
	tables  *lock.Table
	exec    *executor.Executor
	log     *slog.Logger
	metrics *metrics.Registry

	hashKeys bool

	idxMu sync.Mutex
	defs  map[string][]*indexDef
	gens  map[string]*atomic.Uint64
}

// Open prepares the storage root and replays the index ledger.
func Open(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, dberr.Newf(dberr.ErrPrecondition, "storage root is required")
	}
	switch opts.MultiwayKey {
	case "", KeyValue, KeyHash:
	default:
		return nil, dberr.Newf(dberr.ErrFormat, "unknown multiway key mode %q", opts.MultiwayKey)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}

	if err := opts.Fs.MkdirAll(filepath.Join(opts.Root, DatabasesDir), 0o755); err != nil {
		return nil, err
	}
	cat, err := catalog.Open(opts.Fs, opts.Root, opts.Logger)
	if err != nil {
		return nil, err
	}

	s := &Store{
		fs:       opts.Fs,
		root:     opts.Root,
		catalog:  cat,
		tables:   lock.NewTable(),
		log:      opts.Logger,
		metrics:  opts.Metrics,
		hashKeys: opts.MultiwayKey == KeyHash,
		defs:     make(map[string][]*indexDef),
		gens:     make(map[string]*atomic.Uint64),
	}
	s.exec = executor.New(opts.Logger, s.metrics.RecordScan)

	if err := s.loadIndices(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the live index structures. Table files are not held open
// between operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	for _, defs := range s.defs {
		for _, d := range defs {
			d.live = nil
		}
	}
	return nil
}

// Metrics returns the registry the store records into.
func (s *Store) Metrics() *metrics.Registry { return s.metrics }

func (s *Store) track(op string, start time.Time, err *error) {
	*err = classify(*err)
	s.metrics.RecordOperation(op, dberr.Label(*err), time.Since(start))
	if *err != nil {
		s.log.Debug("engine: operation failed", "op", op, "err", *err)
	}
}

// classify tags errors from the lower layers with their kind.
func classify(err error) error {
	if err == nil || dberr.KindOf(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, heap.ErrTableNotFound),
		errors.Is(err, executor.ErrUnknownColumn):
		return dberr.Wrap(dberr.ErrNotFound, err, "")
	case errors.Is(err, heap.ErrTableExists),
		errors.Is(err, catalog.ErrExists):
		return dberr.Wrap(dberr.ErrConflict, err, "")
	case errors.Is(err, heap.ErrNoColumns):
		return dberr.Wrap(dberr.ErrPrecondition, err, "")
	case errors.Is(err, record.ErrMalformedRow),
		errors.Is(err, record.ErrMalformedSchema),
		errors.Is(err, record.ErrArityMismatch),
		errors.Is(err, record.ErrUnencodable),
		errors.Is(err, record.ErrUnknownType),
		errors.Is(err, catalog.ErrMalformedLine),
		errors.Is(err, executor.ErrBadPredicate),
		errors.Is(err, planner.ErrUnknownOperator),
		errors.Is(err, planner.ErrUnknownDirection),
		errors.Is(err, index.ErrUnknownKind):
		return dberr.Wrap(dberr.ErrFormat, err, "")
	}
	return err
}

// validateIdent rejects names that cannot be stored in a ledger line or used
// as a path element.
func validateIdent(what, name string) error {
	if err := validate.Var(name, "required,excludesall=/\\0x2C"); err != nil {
		return dberr.Newf(dberr.ErrPrecondition, "invalid %s name %q", what, name)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, "\r\n") || strings.TrimSpace(name) != name {
		return dberr.Newf(dberr.ErrPrecondition, "invalid %s name %q", what, name)
	}
	return nil
}

func trimStatement(name string) string {
	name = strings.TrimSpace(name)
	return strings.TrimSpace(strings.TrimSuffix(name, ";"))
}

func (s *Store) dbDir(db string) string {
	return filepath.Join(s.root, DatabasesDir, db)
}

// ---- databases ----

// CreateDatabase creates the database directory and registers the name.
// A name already on disk or in the ledger is a conflict.
func (s *Store) CreateDatabase(name string) (err error) {
	defer s.track("create_database", time.Now(), &err)
	name = trimStatement(name)
	if err := validateIdent("database", name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dbDir(name)
	if ok, err := afero.DirExists(s.fs, dir); err != nil {
		return err
	} else if ok {
		return dberr.Newf(dberr.ErrConflict, "database %s already exists", name)
	}
	if ok, err := s.catalog.HasDatabase(name); err != nil {
		return err
	} else if ok {
		return dberr.Newf(dberr.ErrConflict, "database %s is already registered", name)
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := s.catalog.RegisterDatabase(name); err != nil {
		return err
	}
	s.log.Info("engine: database created", "database", name)
	return nil
}

// SetDatabase selects the database table operations run against.
func (s *Store) SetDatabase(name string) (err error) {
	defer s.track("set_database", time.Now(), &err)
	name = trimStatement(name)
	if err := validateIdent("database", name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := afero.DirExists(s.fs, s.dbDir(name))
	if err != nil {
		return err
	}
	if !ok {
		return dberr.Newf(dberr.ErrNotFound, "database %s does not exist", name)
	}
	s.current = name
	return nil
}

// CurrentDatabase returns the selected database, or "".
func (s *Store) CurrentDatabase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) ShowDatabases() (names []string, err error) {
	defer s.track("show_databases", time.Now(), &err)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Databases()
}

// DropDatabase removes the database directory and every ledger line that
// refers to it. Every step is attempted; the drop fails if any step failed.
func (s *Store) DropDatabase(name string) (err error) {
	defer s.track("drop_database", time.Now(), &err)
	name = trimStatement(name)
	if err := validateIdent("database", name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dbDir(name)
	onDisk, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return err
	}
	listed, err := s.catalog.HasDatabase(name)
	if err != nil {
		return err
	}
	if !onDisk && !listed {
		return dberr.Newf(dberr.ErrNotFound, "database %s does not exist", name)
	}

	var errs error
	if onDisk {
		errs = multierr.Append(errs, s.fs.RemoveAll(dir))
	}
	dropped, uerr := s.catalog.UnregisterDatabase(name)
	errs = multierr.Append(errs, uerr)
	for _, table := range dropped {
		errs = multierr.Append(errs, s.forgetIndices(table, name))
		s.bumpGen(name, table)
	}

	if strings.EqualFold(s.current, name) {
		s.current = ""
	}
	if errs != nil {
		return errs
	}
	s.log.Info("engine: database dropped", "database", name, "tables", len(dropped))
	return nil
}

// ---- table scope ----

// beginTable checks the table-level preconditions and takes the table lock.
// The returned release function must be called when the operation ends.
func (s *Store) beginTable(table string) (db string, release func(), err error) {
	s.mu.RLock()
	if s.current == "" {
		s.mu.RUnlock()
		return "", nil, dberr.Newf(dberr.ErrPrecondition, "no database selected")
	}
	if err := validateIdent("table", table); err != nil {
		s.mu.RUnlock()
		return "", nil, err
	}
	unlock := s.tables.Lock(record.Fold(table))
	return s.current, func() {
		unlock()
		s.mu.RUnlock()
	}, nil
}

func (s *Store) openTable(db, table string) (*heap.Table, error) {
	tbl, err := heap.Open(s.fs, s.dbDir(db), table)
	if errors.Is(err, heap.ErrTableNotFound) {
		return nil, dberr.Newf(dberr.ErrNotFound, "table %s does not exist in %s", table, db)
	}
	return tbl, err
}
