package datasets

import (
	"fmt"
	"time"

	geomlib "github.com/twpayne/go-geom"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/geo"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
)

func init() {
	dataset.Register(&dataset.Descriptor{
		ID:        "fi",
		ShortName: "Finland",
		Title:     "Finnish Crop Fields (Maatalousmaa)",
		Description: `The Finnish Food Authority (FFA) since 2020 produces spatial data sets, more specifically in this context the "Field parcel register" and "Agricultural parcel containing spatial data". A set called "Agricultural land: arable land, permanent grassland or permanent crop (land use)".`,

		Sources: []string{"https://download.inspire.ruokavirasto-awsa.com/data/2023/LandUse.ExistingLandUse.GSAAAgriculturalParcel.gpkg"},

		Providers: []dataset.Provider{{
			Name:  "Finnish Food Authority",
			URL:   "https://www.ruokavirasto.fi/en/about-us/open-information/spatial-data-sets/",
			Roles: []string{"producer", "licensor"},
		}},
		Attribution: "Finnish Food Authority",
		License:     "CC-BY-4.0",

		Columns: map[string][]string{
			"geometry":               {"geometry"},
			"PERUSLOHKOTUNNUS":       {"id"},
			"LOHKONUMERO":            {"block_id"},
			"area":                   {"area"},
			"KASVIKOODI":             {"crop_code"},
			"KASVIKOODI_SELITE_FI":   {"crop_name"},
			"determination_datetime": {"determination_datetime"},
		},

		// Derives determination_datetime from the VUOSI year, repairs
		// invalid rings, and falls back to the geometry's own area
		// (ha) where the register reports zero.
		Migration: migrateFinland,

		MissingSchemas: &schema.Document{
			Properties: map[string]*schema.Property{
				"block_id":  {Type: schema.TypeInt64},
				"crop_name": {Type: schema.TypeString},
				"crop_code": {Type: schema.TypeString},
			},
		},
	})
}

func migrateFinland(t *table.Table) error {
	years, ok := t.Column("VUOSI")
	if !ok {
		return fmt.Errorf("column VUOSI is missing")
	}
	determined := make([]any, len(years))
	for i, v := range years {
		year, err := asYear(v)
		if err != nil {
			return fmt.Errorf("column VUOSI, row %d: %w", i, err)
		}
		determined[i] = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if err := t.SetColumn("determination_datetime", determined); err != nil {
		return err
	}

	geoms, ok := t.Column(t.GeometryColumn())
	if !ok {
		return fmt.Errorf("geometry column is missing")
	}
	repaired := make([]any, len(geoms))
	for i, v := range geoms {
		if v == nil {
			continue
		}
		g, err := geo.Normalize(v.(geomlib.T))
		if err != nil {
			return fmt.Errorf("geometry row %d: %w", i, err)
		}
		repaired[i] = g
	}
	if err := t.SetColumn(t.GeometryColumn(), repaired); err != nil {
		return err
	}

	registered, ok := t.Column("PINTA_ALA")
	if !ok {
		return fmt.Errorf("column PINTA_ALA is missing")
	}
	areas := make([]any, len(registered))
	for i, v := range registered {
		ha := asHectares(v)
		if ha == 0 {
			if g, ok := repaired[i].(geomlib.T); ok {
				ha = geo.Area(g) / 10000
			}
		}
		areas[i] = ha
	}
	return t.SetColumn("area", areas)
}

func asYear(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case string:
		var year int
		if _, err := fmt.Sscanf(x, "%d", &year); err != nil {
			return 0, fmt.Errorf("invalid year %q", x)
		}
		return year, nil
	default:
		return 0, fmt.Errorf("invalid year value %v", v)
	}
}

func asHectares(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	default:
		return 0
	}
}
