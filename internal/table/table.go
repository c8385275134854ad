package table

import (
	"fmt"
	"slices"
)

// Table is the working record set carried through a conversion run:
// an ordered set of named columns aligned by row index. One column is
// designated as the geometry column. Values are scalars, []string, or
// nil for missing data.
//
// All mutating operations keep every column at the same length; a
// length mismatch is rejected rather than silently misaligning rows.
type Table struct {
	names    []string
	cols     map[string][]any
	geometry string
}

// New creates an empty table whose geometry column will carry the
// given name once added.
func New(geometryColumn string) *Table {
	return &Table{
		cols:     make(map[string][]any),
		geometry: geometryColumn,
	}
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.cols[t.names[0]])
}

// NumColumns returns the number of columns in the table.
func (t *Table) NumColumns() int {
	return len(t.names)
}

// Names returns the column names in their stable order.
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// GeometryColumn returns the name of the designated geometry column.
func (t *Table) GeometryColumn() string {
	return t.geometry
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	values, ok := t.cols[name]
	return values, ok
}

// AddColumn appends a new column. The first column added fixes the
// table's row count; every later column must match it.
func (t *Table) AddColumn(name string, values []any) error {
	if _, exists := t.cols[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(t.names) > 0 && len(values) != t.NumRows() {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.NumRows())
	}
	t.names = append(t.names, name)
	t.cols[name] = values
	return nil
}

// SetColumn replaces the values of an existing column, or adds a new
// column when no column with that name exists yet.
func (t *Table) SetColumn(name string, values []any) error {
	if _, exists := t.cols[name]; !exists {
		return t.AddColumn(name, values)
	}
	if len(values) != t.NumRows() {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), t.NumRows())
	}
	t.cols[name] = values
	return nil
}

// RenameColumn renames a column in place, keeping its position.
func (t *Table) RenameColumn(oldName, newName string) error {
	values, ok := t.cols[oldName]
	if !ok {
		return fmt.Errorf("column %q does not exist", oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, exists := t.cols[newName]; exists {
		return fmt.Errorf("column %q already exists", newName)
	}
	idx := slices.Index(t.names, oldName)
	t.names[idx] = newName
	t.cols[newName] = values
	delete(t.cols, oldName)
	if t.geometry == oldName {
		t.geometry = newName
	}
	return nil
}

// DuplicateColumn deep-copies an existing column under a new name.
// The copy shares no storage with the original, so later per-column
// transforms on one copy cannot leak into the other.
func (t *Table) DuplicateColumn(srcName, dstName string) error {
	values, ok := t.cols[srcName]
	if !ok {
		return fmt.Errorf("column %q does not exist", srcName)
	}
	if _, exists := t.cols[dstName]; exists {
		return fmt.Errorf("column %q already exists", dstName)
	}
	return t.AddColumn(dstName, copyValues(values))
}

// DropColumn removes a column from the table.
func (t *Table) DropColumn(name string) error {
	if _, ok := t.cols[name]; !ok {
		return fmt.Errorf("column %q does not exist", name)
	}
	idx := slices.Index(t.names, name)
	t.names = slices.Delete(t.names, idx, idx+1)
	delete(t.cols, name)
	return nil
}

// KeepRows retains only the rows for which mask is true, preserving
// their relative order. The mask must cover every row exactly once.
func (t *Table) KeepRows(mask []bool) error {
	if len(mask) != t.NumRows() {
		return fmt.Errorf("mask has %d entries, table has %d rows", len(mask), t.NumRows())
	}
	for _, name := range t.names {
		values := t.cols[name]
		kept := make([]any, 0, len(values))
		for i, keep := range mask {
			if keep {
				kept = append(kept, values[i])
			}
		}
		t.cols[name] = kept
	}
	return nil
}

// AppendRows concatenates the rows of another table. Both tables must
// have identical column layouts.
func (t *Table) AppendRows(other *Table) error {
	if !slices.Equal(t.names, other.names) {
		return fmt.Errorf("column layouts differ: %v vs %v", t.names, other.names)
	}
	for _, name := range t.names {
		t.cols[name] = append(t.cols[name], other.cols[name]...)
	}
	return nil
}

// Row returns the values of a single row keyed by column name.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.names))
	for _, name := range t.names {
		row[name] = t.cols[name][i]
	}
	return row
}

func copyValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if s, ok := v.([]string); ok {
			out[i] = slices.Clone(s)
			continue
		}
		out[i] = v
	}
	return out
}
