package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddColumnEnforcesRowCount(t *testing.T) {
	tbl := New("geometry")
	require.NoError(t, tbl.AddColumn("id", []any{"a", "b", "c"}))
	require.Equal(t, 3, tbl.NumRows())

	err := tbl.AddColumn("area", []any{1.0, 2.0})
	require.Error(t, err)

	require.NoError(t, tbl.AddColumn("area", []any{1.0, 2.0, 3.0}))
	require.Equal(t, []string{"id", "area"}, tbl.Names())
}

func TestRenameColumnKeepsOrderAndGeometry(t *testing.T) {
	tbl := New("geom")
	require.NoError(t, tbl.AddColumn("FBI", []any{"x"}))
	require.NoError(t, tbl.AddColumn("geom", []any{nil}))

	require.NoError(t, tbl.RenameColumn("FBI", "flik"))
	require.NoError(t, tbl.RenameColumn("geom", "geometry"))

	assert.Equal(t, []string{"flik", "geometry"}, tbl.Names())
	assert.Equal(t, "geometry", tbl.GeometryColumn())

	require.Error(t, tbl.RenameColumn("missing", "other"))
	require.Error(t, tbl.RenameColumn("flik", "geometry"))
}

func TestDuplicateColumnIsIndependent(t *testing.T) {
	tbl := New("geometry")
	require.NoError(t, tbl.AddColumn("codes", []any{[]string{"a", "b"}, nil}))
	require.NoError(t, tbl.DuplicateColumn("codes", "codes_copy"))

	// Mutating the copy must not affect the original.
	dup, ok := tbl.Column("codes_copy")
	require.True(t, ok)
	dup[0].([]string)[0] = "mutated"
	require.NoError(t, tbl.SetColumn("codes_copy", []any{nil, nil}))

	orig, ok := tbl.Column("codes")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, orig[0])
}

func TestKeepRows(t *testing.T) {
	tbl := New("geometry")
	require.NoError(t, tbl.AddColumn("LF", []any{"LF", "LF", "XX"}))
	require.NoError(t, tbl.AddColumn("id", []any{"1", "2", "3"}))

	require.Error(t, tbl.KeepRows([]bool{true, false}))

	require.NoError(t, tbl.KeepRows([]bool{true, true, false}))
	require.Equal(t, 2, tbl.NumRows())
	ids, _ := tbl.Column("id")
	assert.Equal(t, []any{"1", "2"}, ids)
}

func TestAppendRows(t *testing.T) {
	a := New("geometry")
	require.NoError(t, a.AddColumn("id", []any{"1"}))
	b := New("geometry")
	require.NoError(t, b.AddColumn("id", []any{"2", "3"}))

	require.NoError(t, a.AppendRows(b))
	require.Equal(t, 3, a.NumRows())

	c := New("geometry")
	require.NoError(t, c.AddColumn("other", []any{"x"}))
	require.Error(t, a.AppendRows(c))
}

func TestRowAccess(t *testing.T) {
	tbl := New("geometry")
	require.NoError(t, tbl.AddColumn("id", []any{"1", "2"}))
	require.NoError(t, tbl.AddColumn("area", []any{10.5, nil}))

	assert.Equal(t, map[string]any{"id": "2", "area": nil}, tbl.Row(1))
}
