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

func testDescriptor() *dataset.Descriptor {
	return &dataset.Descriptor{
		ID:          "xx",
		Title:       "Test fields",
		Description: "Synthetic field boundaries.",
		License:     "CC-BY-4.0",
		Attribution: "© Test Agency",
		Sources:     []string{"https://example.com/fields.gpkg"},
		Columns:     map[string][]string{"geometry": {"geometry"}},
		Providers: []dataset.Provider{
			{Name: "Test Agency", Roles: []string{"producer", "licensor"}},
		},
		Extensions: []string{"https://fiboa.github.io/flik-extension/v0.1.0/schema.yaml"},
	}
}

func TestBuildCollectionComputedExtent(t *testing.T) {
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("geometry", []any{
		geom.NewPointFlat(geom.XY, []float64{10.0, 50.0}),
		geom.NewPointFlat(geom.XY, []float64{12.5, 51.5}),
	}))
	require.NoError(t, tbl.AddColumn(determinationColumn, []any{
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	c, err := buildCollection(tbl, testDescriptor())
	require.NoError(t, err)

	assert.Equal(t, "xx", c.ID)
	assert.Equal(t, schema.FiboaVersion, c.FiboaVersion)
	require.Len(t, c.Extent.Spatial.BBox, 1)
	assert.Equal(t, []float64{10.0, 50.0, 12.5, 51.5}, c.Extent.Spatial.BBox[0])

	interval := c.Extent.Temporal.Interval[0]
	require.NotNil(t, interval[0])
	assert.Equal(t, "2023-03-01T00:00:00Z", *interval[0])
	assert.Equal(t, "2023-06-01T00:00:00Z", *interval[1])
}

func TestBuildCollectionDescriptorBBoxWins(t *testing.T) {
	d := testDescriptor()
	d.BBox = []float64{9.8, 50.2, 12.6, 51.6}

	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("geometry", []any{
		geom.NewPointFlat(geom.XY, []float64{0.0, 0.0}),
	}))

	c, err := buildCollection(tbl, d)
	require.NoError(t, err)
	assert.Equal(t, d.BBox, c.Extent.Spatial.BBox[0])
}

func TestBuildCollectionOpenTemporalExtent(t *testing.T) {
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("geometry", []any{
		geom.NewPointFlat(geom.XY, []float64{1.0, 2.0}),
	}))

	c, err := buildCollection(tbl, testDescriptor())
	require.NoError(t, err)
	assert.Nil(t, c.Extent.Temporal.Interval[0][0])
	assert.Nil(t, c.Extent.Temporal.Interval[0][1])
}

func TestBuildCollectionNoGeometriesFails(t *testing.T) {
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("geometry", []any{nil, nil}))

	_, err := buildCollection(tbl, testDescriptor())
	require.Error(t, err)
}
