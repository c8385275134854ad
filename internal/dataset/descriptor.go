package dataset

import (
	"fmt"

	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
)

// TableMigration is a whole-table transform a dataset may run before
// any other stage, e.g. to derive columns that no single source column
// provides.
type TableMigration func(t *table.Table) error

// ColumnFilter is a row predicate over one column: it receives the
// full column and returns a keep-mask of the same length.
type ColumnFilter func(values []any) []bool

// ColumnMigration rewrites the values of one column. It receives the
// full column so it can use column-wide operations, and must return a
// column of the same length. Migrations must not read other columns.
type ColumnMigration func(values []any) ([]any, error)

// Provider identifies an organization involved in producing or
// licensing a dataset.
type Provider struct {
	Name  string   `json:"name"`
	URL   string   `json:"url,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Descriptor is the declarative configuration for one source dataset.
// It is constructed once at registration time and read-only afterwards.
type Descriptor struct {
	// ID is the dataset identifier, e.g. "de_th".
	ID string
	// ShortName is a human-readable short label for listings.
	ShortName string
	Title     string
	// Description holds CommonMark prose describing the dataset.
	Description string

	// Sources lists the locations of the source files.
	Sources []string

	// BBox optionally fixes the spatial extent (west, south, east,
	// north in WGS84). When absent the extent is computed from the
	// converted geometries.
	BBox []float64

	// Columns maps each source column to one or more target names.
	// A source mapped to several targets is duplicated, not moved.
	// Source columns absent from the map are dropped.
	Columns map[string][]string

	// Migration optionally transforms the whole table before any
	// filtering or renaming happens.
	Migration TableMigration

	// ColumnFilters drop rows, keyed by source column name. All
	// declared filters must hold for a row to survive.
	ColumnFilters map[string]ColumnFilter

	// ColumnMigrations rewrite column values, keyed by source column
	// name, before columns are renamed.
	ColumnMigrations map[string]ColumnMigration

	// Extensions lists URLs of fiboa extension schemas the dataset
	// implements.
	Extensions []string

	// MissingSchemas declares properties that neither the core schema
	// nor any extension defines.
	MissingSchemas *schema.Document

	Providers   []Provider
	Attribution string
	License     string

	// SourceCoopURL optionally points at the dataset's repository on
	// Source Cooperative; recorded as a link in the collection.
	SourceCoopURL string
}

// Validate checks the structural integrity of the descriptor.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("descriptor has no id")
	}
	if d.Title == "" {
		return fmt.Errorf("dataset %s: descriptor has no title", d.ID)
	}
	if len(d.Sources) == 0 {
		return fmt.Errorf("dataset %s: descriptor has no sources", d.ID)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("dataset %s: descriptor has no column map", d.ID)
	}
	if d.License == "" {
		return fmt.Errorf("dataset %s: descriptor has no license", d.ID)
	}
	for src, targets := range d.Columns {
		if len(targets) == 0 {
			return fmt.Errorf("dataset %s: column %q maps to no target", d.ID, src)
		}
	}
	if len(d.BBox) != 0 && len(d.BBox) != 4 {
		return fmt.Errorf("dataset %s: bounding box must have 4 values, got %d", d.ID, len(d.BBox))
	}
	return nil
}
