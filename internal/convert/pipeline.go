package convert

import (
	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
	"github.com/untillpro/goutils/logger"
)

// Pipeline executes the conversion stages for one dataset descriptor.
// The stage order is fixed so that descriptors stay declarative:
// filters and migrations see original source column names, while type
// coercion sees final target names.
//
//  1. global migration (whole-table transform)
//  2. row filtering
//  3. column migrations
//  4. column duplication
//  5. column renaming
//  6. column pruning
//  7. collection assembly
//  8. schema resolution
//  9. type coercion
//
// A stage the descriptor does not configure is a no-op. Any stage
// failure aborts the run and leaves the table undefined.
type Pipeline struct {
	desc       *dataset.Descriptor
	base       *schema.Document
	extensions []*schema.Document
	policy     Policy
}

// Result carries the outputs of a completed run.
type Result struct {
	Table      *table.Table
	Collection *Collection
	Schema     *schema.Resolved
}

// NewPipeline creates a pipeline for one descriptor. The base schema
// and the descriptor's extension schemas must already be loaded; the
// pipeline itself performs no I/O.
func NewPipeline(desc *dataset.Descriptor, base *schema.Document, extensions []*schema.Document, policy Policy) *Pipeline {
	if policy == "" {
		policy = PolicyWarn
	}
	return &Pipeline{desc: desc, base: base, extensions: extensions, policy: policy}
}

// Run converts the loaded source table. The pipeline takes ownership
// of the table for the duration of the run.
func (p *Pipeline) Run(t *table.Table) (*Result, error) {
	logger.Verbose("converting dataset", p.desc.ID, "with", t.NumRows(), "rows")

	if p.desc.Migration != nil {
		if err := p.desc.Migration(t); err != nil {
			return nil, configErrorf("global migration failed: %v", err)
		}
	}

	if err := applyFilters(t, p.desc.ColumnFilters); err != nil {
		return nil, err
	}
	if err := applyColumnMigrations(t, p.desc.ColumnMigrations); err != nil {
		return nil, err
	}

	projected, err := projectColumns(t, p.desc.Columns)
	if err != nil {
		return nil, err
	}

	collection, err := buildCollection(projected, p.desc)
	if err != nil {
		return nil, err
	}

	resolved, err := schema.Resolve(p.base, p.extensions, p.desc.MissingSchemas)
	if err != nil {
		return nil, configErrorf("schema resolution failed: %v", err)
	}

	if err := coerceTable(projected, resolved, p.policy); err != nil {
		return nil, err
	}

	logger.Verbose("conversion finished:", projected.NumRows(), "rows,", projected.NumColumns(), "columns")
	return &Result{Table: projected, Collection: collection, Schema: resolved}, nil
}
