package heap

import (
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/tinysql/internal/record"
)

func usersSchema() record.Schema {
	return record.Schema{
		Cols: []record.Column{
			{Name: "id", Type: record.ColInteger},
			{Name: "name", Type: record.ColText},
		},
	}
}

// newTestTable creates a users table on an in-memory filesystem.
func newTestTable(t *testing.T) (*Table, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/db", 0o755))
	tbl, err := Create(fs, "/db", "users", usersSchema())
	require.NoError(t, err)
	return tbl, fs
}

func TestTable_CreateWritesSchemaOnly(t *testing.T) {
	tbl, fs := newTestTable(t)
	data, err := afero.ReadFile(fs, tbl.Path)
	require.NoError(t, err)
	require.Equal(t, "id,Integer\nname,Text\n", string(data))

	rows, err := tbl.ReadAll()
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestTable_CreateErrors(t *testing.T) {
	_, fs := newTestTable(t)

	_, err := Create(fs, "/db", "users", usersSchema())
	require.ErrorIs(t, err, ErrTableExists)

	_, err = Create(fs, "/db", "empty", record.Schema{})
	require.ErrorIs(t, err, ErrNoColumns)
}

func TestTable_AppendAndScan(t *testing.T) {
	tbl, fs := newTestTable(t)

	for i := 0; i < 5; i++ {
		pos, err := tbl.Append(record.Row{fmt.Sprint(i), fmt.Sprintf("user-%d", i)})
		require.NoError(t, err)
		require.Equal(t, i, pos)
	}

	// reopen reads the schema back from disk
	reopened, err := Open(fs, "/db", "users")
	require.NoError(t, err)
	require.Equal(t, usersSchema(), reopened.Schema())

	var seen []int
	err = reopened.Scan(func(pos int, row record.Row) error {
		seen = append(seen, pos)
		require.Equal(t, fmt.Sprintf("user-%d", pos), row[1])
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, seen)

	n, err := reopened.Count()
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestTable_AppendRejectsBadRows(t *testing.T) {
	tbl, _ := newTestTable(t)

	_, err := tbl.Append(record.Row{"1"})
	require.ErrorIs(t, err, record.ErrArityMismatch)

	_, err = tbl.Append(record.Row{"1", "a,,b"})
	require.ErrorIs(t, err, record.ErrUnencodable)

	n, err := tbl.Count()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTable_Rows(t *testing.T) {
	tbl, _ := newTestTable(t)
	for i := 0; i < 4; i++ {
		_, err := tbl.Append(record.Row{fmt.Sprint(i), "n"})
		require.NoError(t, err)
	}

	rows, err := tbl.Rows([]int{3, 1})
	require.NoError(t, err)
	require.Equal(t, []record.Row{{"3", "n"}, {"1", "n"}}, rows)

	_, err = tbl.Rows([]int{9})
	require.ErrorIs(t, err, ErrPosition)
}

func TestTable_Rewrite(t *testing.T) {
	tbl, fs := newTestTable(t)
	for i := 0; i < 3; i++ {
		_, err := tbl.Append(record.Row{fmt.Sprint(i), "old"})
		require.NoError(t, err)
	}

	require.NoError(t, tbl.Rewrite([]record.Row{{"9", "new"}}))

	rows, err := tbl.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []record.Row{{"9", "new"}}, rows)

	ok, err := afero.Exists(fs, tbl.Path+".tmp")
	require.NoError(t, err)
	require.False(t, ok)

	// a row that cannot be encoded aborts before the file is touched
	err = tbl.Rewrite([]record.Row{{"1", "bad\nvalue"}})
	require.ErrorIs(t, err, record.ErrUnencodable)
	rows, err = tbl.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestTable_OpenMissingAndDrop(t *testing.T) {
	tbl, fs := newTestTable(t)

	_, err := Open(fs, "/db", "ghost")
	require.ErrorIs(t, err, ErrTableNotFound)

	require.NoError(t, tbl.Drop())
	ok, err := Exists(fs, "/db", "users")
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, tbl.Drop(), ErrTableNotFound)
	require.ErrorIs(t, tbl.Scan(func(int, record.Row) error { return nil }), ErrTableNotFound)
}

func TestTable_ReadsLegacyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/db", 0o755))
	content := "Id,System.Int32\r\nName,System.String\r\n(1,,Ann)\r\n\r\n(2,,Bob, Jr)\r\n"
	require.NoError(t, afero.WriteFile(fs, "/db/people.table", []byte(content), 0o644))

	tbl, err := Open(fs, "/db", "people")
	require.NoError(t, err)
	require.Equal(t, []string{"Id", "Name"}, tbl.Schema().Names())

	rows, err := tbl.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []record.Row{{"1", "Ann"}, {"2", "Bob, Jr"}}, rows)
}

func TestTable_OnDisk(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()

	tbl, err := Create(fs, dir, "t", usersSchema())
	require.NoError(t, err)
	_, err = tbl.Append(record.Row{"1", "a"})
	require.NoError(t, err)
	require.NoError(t, tbl.Rewrite([]record.Row{{"2", "b"}, {"3", "c"}}))

	reopened, err := Open(fs, dir, "t")
	require.NoError(t, err)
	rows, err := reopened.ReadAll()
	require.NoError(t, err)
	require.Equal(t, []record.Row{{"2", "b"}, {"3", "c"}}, rows)
}
