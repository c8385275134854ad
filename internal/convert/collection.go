package convert

import (
	"math"
	"time"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
	"github.com/twpayne/go-geom"
)

// Collection is the descriptive record about a converted dataset,
// written alongside (or into the metadata of) the data artifact. It is
// independent of the row data and never feeds back into it.
type Collection struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	License         string             `json:"license"`
	Attribution     string             `json:"attribution,omitempty"`
	Providers       []dataset.Provider `json:"providers,omitempty"`
	Extent          Extent             `json:"extent"`
	FiboaVersion    string             `json:"fiboa_version"`
	FiboaExtensions []string           `json:"fiboa_extensions,omitempty"`
	Links           []Link             `json:"links,omitempty"`
}

// Extent holds the spatial and, when determinable, temporal extent.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent lists bounding boxes as west, south, east, north.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent lists start/end instants; either end may be null when
// unbounded or unknown.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

// Link is a related resource reference.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// buildCollection assembles the collection record from the descriptor
// and the post-projection table. The table is only read: the spatial
// extent falls back to the envelope of the surviving geometries when
// the descriptor does not fix a bounding box, and the temporal extent
// comes from the determination datetime column when present.
func buildCollection(t *table.Table, d *dataset.Descriptor) (*Collection, error) {
	bbox := d.BBox
	if len(bbox) == 0 {
		computed, err := geometryEnvelope(t)
		if err != nil {
			return nil, err
		}
		bbox = computed
	}

	c := &Collection{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		License:         d.License,
		Attribution:     d.Attribution,
		Providers:       d.Providers,
		FiboaVersion:    schema.FiboaVersion,
		FiboaExtensions: d.Extensions,
		Extent: Extent{
			Spatial:  SpatialExtent{BBox: [][]float64{bbox}},
			Temporal: temporalExtent(t),
		},
	}
	if d.SourceCoopURL != "" {
		c.Links = append(c.Links, Link{Href: d.SourceCoopURL, Rel: "related"})
	}
	return c, nil
}

func geometryEnvelope(t *table.Table) ([]float64, error) {
	values, ok := t.Column(t.GeometryColumn())
	if !ok {
		return nil, configErrorf("table has no geometry column %q", t.GeometryColumn())
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	seen := false
	for _, v := range values {
		g, ok := v.(geom.T)
		if !ok || g.Empty() {
			continue
		}
		b := g.Bounds()
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
		seen = true
	}
	if !seen {
		return nil, coercionErrorf("cannot compute spatial extent: no geometries")
	}
	return []float64{minX, minY, maxX, maxY}, nil
}

// determinationColumn is the property that carries the instant a field
// boundary was determined; it drives the temporal extent.
const determinationColumn = "determination_datetime"

func temporalExtent(t *table.Table) TemporalExtent {
	open := TemporalExtent{Interval: [][]*string{{nil, nil}}}
	values, ok := t.Column(determinationColumn)
	if !ok {
		return open
	}
	var earliest, latest time.Time
	seen := false
	for _, v := range values {
		ts, ok := v.(time.Time)
		if !ok {
			continue
		}
		if !seen || ts.Before(earliest) {
			earliest = ts
		}
		if !seen || ts.After(latest) {
			latest = ts
		}
		seen = true
	}
	if !seen {
		return open
	}
	from := earliest.UTC().Format(time.RFC3339)
	to := latest.UTC().Format(time.RFC3339)
	return TemporalExtent{Interval: [][]*string{{&from, &to}}}
}
