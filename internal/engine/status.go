package engine

import (
	"github.com/tuannm99/tinysql/internal/dberr"
	"github.com/tuannm99/tinysql/internal/record"
	"github.com/tuannm99/tinysql/internal/sql/executor"
	"github.com/tuannm99/tinysql/internal/sql/planner"
)

// Status is the two-valued outcome reported to the command layer.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// StatusOf maps an operation error to its status.
func StatusOf(err error) Status {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// KindOf returns the error kind err matches, or nil for success and for
// internal failures.
func KindOf(err error) error { return dberr.KindOf(err) }

// Error kinds. Every error returned by a Store operation matches one of these
// with errors.Is unless it is an internal I/O failure.
var (
	ErrPrecondition = dberr.ErrPrecondition
	ErrNotFound     = dberr.ErrNotFound
	ErrConflict     = dberr.ErrConflict
	ErrFormat       = dberr.ErrFormat
	ErrNoMatch      = dberr.ErrNoMatch
)

type (
	Result     = executor.Result
	Predicate  = planner.Predicate
	Operator   = planner.Operator
	OrderBy    = planner.OrderBy
	Direction  = planner.Direction
	Assignment = planner.Assignment
	Column     = record.Column
	ColumnType = record.ColumnType
)
