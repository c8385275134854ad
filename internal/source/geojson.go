package source

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/fiboa/converter/internal/table"
)

// LoadGeoJSON reads a GeoJSON feature collection fetched from the
// given locator. Property keys become columns (sorted for a stable
// column order); features missing a property yield null.
func LoadGeoJSON(ctx context.Context, fetcher *Fetcher, locator, cachePath string) (*table.Table, error) {
	data, err := fetcher.Download(ctx, locator, cachePath)
	if err != nil {
		return nil, err
	}
	return parseGeoJSON(data)
}

func parseGeoJSON(data []byte) (*table.Table, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("feature collection is empty")
	}

	keySet := map[string]bool{}
	for _, f := range fc.Features {
		for k := range f.Properties {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.New(GeometryColumn)
	for _, key := range keys {
		values := make([]any, len(fc.Features))
		for i, f := range fc.Features {
			values[i] = f.Properties[key]
		}
		if err := t.AddColumn(key, values); err != nil {
			return nil, err
		}
	}

	geoms := make([]any, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry != nil {
			geoms[i] = f.Geometry
		}
	}
	if err := t.AddColumn(GeometryColumn, geoms); err != nil {
		return nil, err
	}
	return t, nil
}
