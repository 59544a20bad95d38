// Package tinysql is the top-level facade for the TinySQL storage engine.
package tinysql

import (
	"github.com/tuannm99/tinysql/internal/engine"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

type (
	Store      = engine.Store
	Options    = engine.Options
	Result     = engine.Result
	Predicate  = engine.Predicate
	Operator   = engine.Operator
	OrderBy    = engine.OrderBy
	Direction  = engine.Direction
	Assignment = engine.Assignment
	Column     = engine.Column
	ColumnType = engine.ColumnType
	IndexInfo  = engine.IndexInfo
	Status     = engine.Status
)

// Open prepares the storage root and returns the process's store.
func Open(opts Options) (*Store, error) { return engine.Open(opts) }

var (
	StatusOf = engine.StatusOf
	KindOf   = engine.KindOf

	ErrPrecondition = engine.ErrPrecondition
	ErrNotFound     = engine.ErrNotFound
	ErrConflict     = engine.ErrConflict
	ErrFormat       = engine.ErrFormat
	ErrNoMatch      = engine.ErrNoMatch

	ParseOperator   = planner.ParseOperator
	ParseDirection  = planner.ParseDirection
	ParseColumnType = record.ParseColumnType
)

const (
	StatusSuccess = engine.StatusSuccess
	StatusError   = engine.StatusError

	Integer  = record.ColInteger
	Double   = record.ColDouble
	Text     = record.ColText
	DateTime = record.ColDateTime

	Eq      = planner.OpEq
	Ne      = planner.OpNe
	Lt      = planner.OpLt
	Gt      = planner.OpGt
	Le      = planner.OpLe
	Ge      = planner.OpGe
	Like    = planner.OpLike
	NotLike = planner.OpNotLike

	Asc  = planner.Asc
	Desc = planner.Desc
)
