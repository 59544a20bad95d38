package tinysql

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_OnDisk(t *testing.T) {
	root := t.TempDir()
	s, err := Open(Options{Root: root})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.CreateDatabase("D"))
	require.NoError(t, s.SetDatabase("D"))
	require.NoError(t, s.CreateTable("T", []Column{{Name: "id", Type: Integer}, {Name: "name", Type: Text}}))
	require.NoError(t, s.InsertValues("T", 2, "b"))
	require.NoError(t, s.InsertValues("T", 1, "a"))
	require.NoError(t, s.CreateIndex("idx", "T", "id", "BTREE"))

	op, err := ParseOperator("like")
	require.NoError(t, err)
	res, err := s.Select("T", []string{"id"}, &Predicate{Column: "name", Op: op, Value: "_"}, &OrderBy{Column: "id", Direction: Asc})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.Print(&buf))
	require.Equal(t, "id\n1\n2\n(2 rows)\n", buf.String())

	err = s.InsertValues("T", 1, "again")
	require.Equal(t, StatusError, StatusOf(err))
	require.ErrorIs(t, KindOf(err), ErrConflict)
}
