package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var errLow = errors.New("heap: table file not found")

func TestNewf(t *testing.T) {
	err := Newf(ErrConflict, "table %s exists", "t")
	require.ErrorIs(t, err, ErrConflict)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, "tinysql: conflict: table t exists", err.Error())
	require.Equal(t, ErrConflict, KindOf(err))
}

func TestWrap(t *testing.T) {
	require.NoError(t, Wrap(ErrNotFound, nil, "x"))

	err := Wrap(ErrNotFound, fmt.Errorf("open: %w", errLow), "table t")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, errLow)
	require.Equal(t, "tinysql: not found: table t: open: heap: table file not found", err.Error())

	bare := Wrap(ErrFormat, errLow, "")
	require.Equal(t, "tinysql: malformed input: heap: table file not found", bare.Error())

	// wrapping again keeps the kind visible
	outer := fmt.Errorf("engine: select: %w", err)
	require.Equal(t, ErrNotFound, KindOf(outer))
}

func TestLabel(t *testing.T) {
	require.Equal(t, "success", Label(nil))
	require.Equal(t, "internal", Label(errLow))
	require.Equal(t, "precondition", Label(Newf(ErrPrecondition, "no database selected")))
	require.Equal(t, "no_match", Label(Newf(ErrNoMatch, "t")))
	require.Equal(t, "format", Label(Newf(ErrFormat, "t")))
	require.Equal(t, "not_found", Label(Newf(ErrNotFound, "t")))
	require.Equal(t, "conflict", Label(Newf(ErrConflict, "t")))
}
