package convert

import (
	"sort"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/table"
	"github.com/untillpro/goutils/logger"
)

// applyFilters drops every row for which any declared filter predicate
// does not hold. Filters compose by logical AND and run against source
// column names, before any renaming. A filter referencing a column the
// table does not have is a descriptor bug and fails the run.
func applyFilters(t *table.Table, filters map[string]dataset.ColumnFilter) error {
	if len(filters) == 0 {
		return nil
	}

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := t.NumRows()
	mask := make([]bool, rows)
	for i := range mask {
		mask[i] = true
	}

	for _, name := range names {
		values, ok := t.Column(name)
		if !ok {
			return configErrorf("filter references missing column %q", name)
		}
		keep := filters[name](values)
		if len(keep) != rows {
			return cardinalityErrorf("filter on column %q returned %d entries for %d rows", name, len(keep), rows)
		}
		for i := range mask {
			mask[i] = mask[i] && keep[i]
		}
	}

	if err := t.KeepRows(mask); err != nil {
		return err
	}
	if dropped := rows - t.NumRows(); dropped > 0 {
		logger.Verbose("filters dropped", dropped, "of", rows, "rows")
	}
	return nil
}
