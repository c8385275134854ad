package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fiboa/converter/internal/table"
)

// Load materializes all source locators of a dataset into one table.
// The encoding is picked per locator: PostGIS for postgres URLs,
// GeoPackage for .gpkg files, GeoJSON for .json/.geojson files, and
// zip archives holding one of the file encodings.
// Multiple sources are concatenated and must share a column layout.
func Load(ctx context.Context, locators []string, cachePath string) (*table.Table, error) {
	if len(locators) == 0 {
		return nil, fmt.Errorf("no source locators")
	}

	fetcher := NewFetcher()
	var merged *table.Table
	for _, locator := range locators {
		// A shared cache path only works for a single source.
		cache := cachePath
		if len(locators) > 1 {
			cache = ""
		}
		t, err := loadOne(ctx, fetcher, locator, cache)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = t
			continue
		}
		if err := merged.AppendRows(t); err != nil {
			return nil, fmt.Errorf("cannot merge source %s: %w", locator, err)
		}
	}
	return merged, nil
}

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func loadOne(ctx context.Context, fetcher *Fetcher, locator, cachePath string) (*table.Table, error) {
	if strings.HasPrefix(locator, "postgres://") || strings.HasPrefix(locator, "postgresql://") {
		return LoadPostGIS(ctx, locator)
	}

	switch ext := strings.ToLower(filepath.Ext(strings.SplitN(locator, "?", 2)[0])); ext {
	case ".zip":
		return loadArchive(ctx, fetcher, locator, cachePath)
	case ".gpkg":
		path, err := fetcher.Fetch(ctx, locator, cachePath)
		if err != nil {
			return nil, err
		}
		return LoadGeoPackage(ctx, path)
	case ".json", ".geojson":
		return LoadGeoJSON(ctx, fetcher, locator, cachePath)
	default:
		return nil, fmt.Errorf("unsupported source encoding: %s", locator)
	}
}
