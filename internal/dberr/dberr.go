// Package dberr holds the error kinds surfaced by the storage engine.
//
// Every error returned from a Store operation matches exactly one kind with
// errors.Is; the message carries the human-readable detail.
package dberr

import (
	"errors"
	"fmt"
)

var (
	ErrPrecondition = errors.New("tinysql: precondition failed")
	ErrNotFound     = errors.New("tinysql: not found")
	ErrConflict     = errors.New("tinysql: conflict")
	ErrFormat       = errors.New("tinysql: malformed input")
	// ErrNoMatch is returned by mutations whose predicate matched zero rows.
	ErrNoMatch = errors.New("tinysql: no rows matched")
)

var kinds = []error{ErrPrecondition, ErrNotFound, ErrConflict, ErrFormat, ErrNoMatch}

// Error is a detail message tagged with one kind.
type Error struct {
	Kind   error
	Detail string
	cause  error
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil && e.Detail != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.cause }

// Newf builds an error of the given kind.
func Newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap tags cause with kind. A nil cause yields nil.
func Wrap(kind error, cause error, detail string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

// KindOf returns the kind sentinel err matches, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Label is a short lowercase name for err's kind, used for metrics labels.
func Label(err error) string {
	switch KindOf(err) {
	case nil:
		if err == nil {
			return "success"
		}
		return "internal"
	case ErrPrecondition:
		return "precondition"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrFormat:
		return "format"
	case ErrNoMatch:
		return "no_match"
	}
	return "internal"
}
