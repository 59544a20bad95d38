package catalog

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) (*Catalog, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	c, err := Open(fs, "/root", nil)
	require.NoError(t, err)
	return c, fs
}

func readLedger(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join("/root", Dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestOpen_CreatesLedgers(t *testing.T) {
	_, fs := newTestCatalog(t)
	for _, name := range []string{DatabasesFile, TablesFile, IndicesFile} {
		require.Empty(t, readLedger(t, fs, name))
	}
}

func TestDatabases(t *testing.T) {
	c, fs := newTestCatalog(t)

	require.NoError(t, c.RegisterDatabase("Shop"))
	require.NoError(t, c.RegisterDatabase("hr"))
	require.ErrorIs(t, c.RegisterDatabase("SHOP"), ErrExists)

	dbs, err := c.Databases()
	require.NoError(t, err)
	require.Equal(t, []string{"Shop", "hr"}, dbs)
	require.Equal(t, "Shop\nhr\n", readLedger(t, fs, DatabasesFile))

	ok, err := c.HasDatabase("shop")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTables(t *testing.T) {
	c, fs := newTestCatalog(t)

	require.NoError(t, c.RegisterTable("shop", "orders"))
	require.NoError(t, c.RegisterTable("shop", "items"))
	require.NoError(t, c.RegisterTable("hr", "orders"))
	require.ErrorIs(t, c.RegisterTable("SHOP", "Orders"), ErrExists)
	require.Equal(t, "shop,orders\nshop,items\nhr,orders\n", readLedger(t, fs, TablesFile))

	tables, err := c.Tables("shop")
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "items"}, tables)

	elsewhere, err := c.TableElsewhere("orders", "shop")
	require.NoError(t, err)
	require.True(t, elsewhere)
	elsewhere, err = c.TableElsewhere("items", "shop")
	require.NoError(t, err)
	require.False(t, elsewhere)

	require.NoError(t, c.UnregisterTable("shop", "orders"))
	ok, err := c.HasTable("shop", "orders")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = c.HasTable("hr", "orders")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUnregisterDatabase(t *testing.T) {
	c, fs := newTestCatalog(t)
	require.NoError(t, c.RegisterDatabase("shop"))
	require.NoError(t, c.RegisterDatabase("hr"))
	require.NoError(t, c.RegisterTable("shop", "orders"))
	require.NoError(t, c.RegisterTable("hr", "people"))
	require.NoError(t, c.RegisterTable("shop", "items"))

	dropped, err := c.UnregisterDatabase("Shop")
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "items"}, dropped)
	require.Equal(t, "hr\n", readLedger(t, fs, DatabasesFile))
	require.Equal(t, "hr,people\n", readLedger(t, fs, TablesFile))
}

func TestRegisterIndex_ColumnCaseMatters(t *testing.T) {
	c, fs := newTestCatalog(t)

	require.NoError(t, c.RegisterIndex(IndexMeta{Table: "T", Column: "a", Name: "ia", Kind: "BST"}))
	require.NoError(t, c.RegisterIndex(IndexMeta{Table: "t", Column: "A", Name: "iA", Kind: "BST"}))
	require.ErrorIs(t, c.RegisterIndex(IndexMeta{Table: "t", Column: "a", Name: "ia2", Kind: "BST"}), ErrExists)
	require.Equal(t, "T,a,ia,BST\nt,A,iA,BST\n", readLedger(t, fs, IndicesFile))
}

func TestIndices(t *testing.T) {
	c, fs := newTestCatalog(t)

	m := IndexMeta{Table: "T", Column: "id", Name: "ix_id", Kind: "BTREE"}
	require.NoError(t, c.RegisterIndex(m))
	require.ErrorIs(t, c.RegisterIndex(IndexMeta{Table: "t", Column: "id", Name: "other", Kind: "BST"}), ErrExists)
	require.NoError(t, c.RegisterIndex(IndexMeta{Table: "T", Column: "name", Name: "ix_name", Kind: "BST"}))
	require.NoError(t, c.RegisterIndex(IndexMeta{Table: "U", Column: "id", Name: "ix_u", Kind: "BST"}))
	require.Equal(t, "T,id,ix_id,BTREE\nT,name,ix_name,BST\nU,id,ix_u,BST\n", readLedger(t, fs, IndicesFile))

	got, err := c.IndicesFor("t")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, m, got[0])

	n, err := c.UnregisterIndices("T")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	all, err := c.Indices()
	require.NoError(t, err)
	require.Equal(t, []IndexMeta{{Table: "U", Column: "id", Name: "ix_u", Kind: "BST"}}, all)
}

func TestIndices_SkipsMalformedLines(t *testing.T) {
	c, fs := newTestCatalog(t)
	path := filepath.Join("/root", Dir, IndicesFile)
	require.NoError(t, afero.WriteFile(fs, path, []byte("T,id,ix,BST\ngarbage\n\nU,,ix,BST\n"), 0o644))

	all, err := c.Indices()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "T", all[0].Table)
}

func TestReopenKeepsEntries(t *testing.T) {
	c, fs := newTestCatalog(t)
	require.NoError(t, c.RegisterDatabase("shop"))

	again, err := Open(fs, "/root", nil)
	require.NoError(t, err)
	dbs, err := again.Databases()
	require.NoError(t, err)
	require.Equal(t, []string{"shop"}, dbs)
}
