package convert

import (
	"testing"
	"time"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func pipelineDescriptor() *dataset.Descriptor {
	return &dataset.Descriptor{
		ID:          "xx",
		Title:       "Test fields",
		Description: "Synthetic field boundaries.",
		License:     "CC-BY-4.0",
		Sources:     []string{"https://example.com/fields.gpkg"},
		Columns: map[string][]string{
			"geometry":  {"geometry"},
			"FBI_KURZ":  {"id"},
			"AENDERUNG": {"change"},
			"STICHTAG":  {"determination_datetime"},
		},
		Migration: func(t *table.Table) error {
			// Parse the source's day-first date format up front so the
			// coercion stage only ever sees instants.
			values, _ := t.Column("STICHTAG")
			parsed := make([]any, len(values))
			for i, v := range values {
				ts, err := time.Parse("02.01.2006", v.(string))
				if err != nil {
					return err
				}
				parsed[i] = ts.UTC()
			}
			return t.SetColumn("STICHTAG", parsed)
		},
		ColumnFilters: map[string]dataset.ColumnFilter{
			"LF": func(values []any) []bool {
				mask := make([]bool, len(values))
				for i, v := range values {
					mask[i] = v == "LF"
				}
				return mask
			},
		},
		ColumnMigrations: map[string]dataset.ColumnMigration{
			"AENDERUNG": func(values []any) ([]any, error) {
				mapping := map[string]any{"Geaendert": true, "Unveraendert": false, "Neu": nil}
				out := make([]any, len(values))
				for i, v := range values {
					out[i] = mapping[v.(string)]
				}
				return out, nil
			},
		},
		MissingSchemas: &schema.Document{
			Properties: map[string]*schema.Property{
				"change": {Type: schema.TypeBoolean},
			},
		},
	}
}

func sourceTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("FBI_KURZ", []any{"a", "b", "c"}))
	require.NoError(t, tbl.AddColumn("LF", []any{"LF", "LF", "XX"}))
	require.NoError(t, tbl.AddColumn("AENDERUNG", []any{"Geaendert", "Unveraendert", "Neu"}))
	require.NoError(t, tbl.AddColumn("STICHTAG", []any{"01.03.2023", "01.03.2023", "01.03.2023"}))
	require.NoError(t, tbl.AddColumn("geometry", []any{
		geom.NewPointFlat(geom.XY, []float64{10.0, 50.0}),
		geom.NewPointFlat(geom.XY, []float64{11.0, 50.5}),
		geom.NewPointFlat(geom.XY, []float64{12.0, 51.0}),
	}))
	return tbl
}

func runPipeline(t *testing.T) *Result {
	t.Helper()
	base, err := schema.Core()
	require.NoError(t, err)

	p := NewPipeline(pipelineDescriptor(), base, nil, PolicyWarn)
	result, err := p.Run(sourceTable(t))
	require.NoError(t, err)
	return result
}

func TestPipelineEndToEnd(t *testing.T) {
	result := runPipeline(t)
	tbl := result.Table

	// The filter drops the XX row and the filter column itself is not
	// mapped, so it must be gone from the output.
	require.Equal(t, 2, tbl.NumRows())
	assert.False(t, tbl.HasColumn("LF"))
	assert.ElementsMatch(t, []string{"id", "change", "determination_datetime", "geometry"}, tbl.Names())

	change, _ := tbl.Column("change")
	assert.Equal(t, []any{true, false}, change)

	when, _ := tbl.Column("determination_datetime")
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), when[0])

	// Every final column is covered by the resolved schema.
	require.NoError(t, result.Schema.Covers(tbl.Names()))

	require.NotNil(t, result.Collection)
	assert.Equal(t, []float64{10.0, 50.0, 11.0, 50.5}, result.Collection.Extent.Spatial.BBox[0])
}

func TestPipelineIsDeterministic(t *testing.T) {
	first := runPipeline(t)
	second := runPipeline(t)

	assert.Equal(t, first.Table.Names(), second.Table.Names())
	assert.Equal(t, snapshot(first.Table), snapshot(second.Table))
	assert.Equal(t, first.Collection, second.Collection)
}

func TestPipelineUnconfiguredStagesAreNoOps(t *testing.T) {
	base, err := schema.Core()
	require.NoError(t, err)

	desc := &dataset.Descriptor{
		ID:          "yy",
		Title:       "Bare",
		Description: "No hooks at all.",
		License:     "CC0-1.0",
		Sources:     []string{"file:///tmp/in.gpkg"},
		Columns: map[string][]string{
			"geometry": {"geometry"},
			"ID":       {"id"},
		},
	}

	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("ID", []any{"f1"}))
	require.NoError(t, tbl.AddColumn("geometry", []any{
		geom.NewPointFlat(geom.XY, []float64{5.0, 45.0}),
	}))

	result, err := NewPipeline(desc, base, nil, "").Run(tbl)
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.NumRows())
}
