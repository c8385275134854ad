package convert

import (
	"sort"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/table"
)

// applyColumnMigrations rewrites column values using the descriptor's
// per-column transforms. Migrations run against source column names,
// after filtering and before renaming, in deterministic (sorted) order.
func applyColumnMigrations(t *table.Table, migrations map[string]dataset.ColumnMigration) error {
	if len(migrations) == 0 {
		return nil
	}

	names := make([]string, 0, len(migrations))
	for name := range migrations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values, ok := t.Column(name)
		if !ok {
			return configErrorf("column migration references missing column %q", name)
		}
		migrated, err := migrations[name](values)
		if err != nil {
			return configErrorf("column migration for %q failed: %v", name, err)
		}
		if len(migrated) != len(values) {
			return cardinalityErrorf("column migration for %q returned %d values for %d rows",
				name, len(migrated), len(values))
		}
		if err := t.SetColumn(name, migrated); err != nil {
			return err
		}
	}
	return nil
}
