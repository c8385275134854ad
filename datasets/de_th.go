package datasets

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
)

var flikDelimiter = regexp.MustCompile(`\s*,\s*`)

func init() {
	dataset.Register(&dataset.Descriptor{
		ID:        "de_th",
		ShortName: "Germany, Thuringia",
		Title:     "Field boundaries for Thuringia, Germany",
		Description: `For use in the application procedure of the Integrated Administration and Control System (IACS), digital data layers are required that represent the current situation of agricultural use with the required accuracy. The field block is a contiguous agricultural area of one or more farmers surrounded by permanent boundaries. The field block thus contains information on the geographical location of the outer boundaries of the agricultural area. Reference parcels are uniquely numbered throughout Germany (Feldblockident - FBI). They also have a field block size (maximum eligible area) and a land use category.

The field blocks are classified separately according to the main land uses of arable land (AL), grassland (GL), permanent crops (DA, OB, WB), including agroforestry systems with an approved utilization concept and according to the BNK for no "agricultural land" (NW, EF and PK) and others.

Landscape elements (LE) are considered part of the eligible agricultural area under defined conditions. In Thuringia, these permanent conditional features are designated as a separate field block (FB) and are therefore part of the Thuringian area reference system (field block reference).

To produce the DGK-Lw, (official) orthophotos from the Thuringian Land Registry and Surveying Administration (TLBG) and orthophotos from the TLLLR's own aerial surveys are interpreted. The origin of this image data is 50% of the state area each year, so that up-to-date image data is available for the entire Thuringian state area every year.`,

		Sources: []string{"https://www.geoproxy.geoportal-th.de/download-service/opendata/agrar/DGK_Thue.zip"},
		BBox:    []float64{9.8778443239, 50.2042330625, 12.6531964048, 51.6490678544},

		Providers: []dataset.Provider{{
			Name:  "Thüringer Landesamt für Landwirtschaft und Ländlichen Raum",
			URL:   "https://geomis.geoportal-th.de/geonetwork/srv/ger/catalog.search#/metadata/D872F2D6-60BC-11D6-B67D-00E0290F5BA0",
			Roles: []string{"producer", "licensor"},
		}},
		Attribution: "© GDI-Th",
		License:     "dl-de/by-2-0",

		Extensions: []string{
			"https://fiboa.github.io/flik-extension/v0.1.0/schema.yaml",
		},

		Columns: map[string][]string{
			"geometry":   {"geometry"},
			"BEZUGSJAHR": {"valid_year"},
			"FBI":        {"flik"},
			"FBI_KURZ":   {"id"},
			"FB_FLAECHE": {"area"},
			"FBI_VJ":     {"flik_last_year"},
			"FB_FL_VJ":   {"area_last_year"},
			"TK10":       {"tk10"},
			"AFO":        {"afo"},
			// LF is filtered below; after the filter every value is
			// "LF", so the column carries no information.
			"BNK":       {"bnk"},
			"KOND_LE":   {"kond_le"},
			"AENDERUNG": {"change"},
			"GEO_UPDAT": {"determination_datetime"},
		},

		// The update date arrives in German day-first notation; parse
		// it here so coercion only ever sees instants.
		Migration: func(t *table.Table) error {
			const col = "GEO_UPDAT"
			values, ok := t.Column(col)
			if !ok {
				return fmt.Errorf("column %s is missing", col)
			}
			parsed := make([]any, len(values))
			for i, v := range values {
				if v == nil {
					continue
				}
				s, ok := v.(string)
				if !ok {
					return fmt.Errorf("column %s, row %d: expected string, got %T", col, i, v)
				}
				ts, err := time.Parse("02.01.2006", s)
				if err != nil {
					return fmt.Errorf("column %s, row %d: %w", col, i, err)
				}
				parsed[i] = ts.UTC()
			}
			return t.SetColumn(col, parsed)
		},

		ColumnFilters: map[string]dataset.ColumnFilter{
			"LF": equals("LF"),
		},

		ColumnMigrations: map[string]dataset.ColumnMigration{
			"AFO":     mapValues(map[string]any{"J": true}, false),
			"KOND_LE": mapValues(map[string]any{"J": true}, false),
			"AENDERUNG": mapValues(map[string]any{
				"Geaendert":    true,
				"Unveraendert": false,
				"Neu":          nil,
			}, nil),
			"FBI_VJ": splitValues(flikDelimiter),
		},

		// Properties the core schema and the flik extension do not
		// define. Keys are target names, not source names.
		MissingSchemas: &schema.Document{
			Required: []string{"valid_year", "area_last_year", "tk10", "bnk"},
			Properties: map[string]*schema.Property{
				"valid_year": {Type: schema.TypeInt16},
				"flik_last_year": {
					Type: schema.TypeArray,
					Items: &schema.Property{
						Type:      schema.TypeString,
						MinLength: intPtr(16),
						MaxLength: intPtr(16),
						Pattern:   "^[A-Z]{2}[A-Z0-9]{2}[A-Z0-9]{2}[A-Z0-9]{10}$",
					},
				},
				"area_last_year": {
					Type:             schema.TypeFloat,
					ExclusiveMinimum: floatPtr(0),
					Maximum:          floatPtr(100000),
				},
				"tk10":    {Type: schema.TypeString},
				"afo":     {Type: schema.TypeBoolean},
				"bnk":     {Type: schema.TypeString},
				"kond_le": {Type: schema.TypeBoolean},
				"change":  {Type: schema.TypeBoolean},
			},
		},
	})
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
