package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fiboa/converter/internal/geo"
	"github.com/fiboa/converter/internal/table"
	"github.com/untillpro/goutils/logger"
)

// GeometryColumn is the name every loader gives the designated
// geometry column, whatever the source called it.
const GeometryColumn = "geometry"

// LoadGeoPackage reads the first feature table of a GeoPackage file.
// A GeoPackage is a SQLite database with registered feature tables, so
// the sqlite3 driver does the heavy lifting.
func LoadGeoPackage(ctx context.Context, path string) (*table.Table, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoPackage: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open GeoPackage: %w", err)
	}

	featureTable, geomColumn, err := discoverFeatureTable(ctx, db)
	if err != nil {
		return nil, err
	}
	logger.Verbose("reading feature table", featureTable, "geometry column", geomColumn)

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdentifier(featureTable))
	if err != nil {
		return nil, fmt.Errorf("failed to read feature table %s: %w", featureTable, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	columns := make([][]any, len(names))
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		for i, v := range values {
			cv, err := convertSQLiteValue(v, names[i] == geomColumn)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", names[i], err)
			}
			columns[i] = append(columns[i], cv)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t := table.New(GeometryColumn)
	for i, name := range names {
		if name == geomColumn {
			name = GeometryColumn
		}
		if err := t.AddColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// discoverFeatureTable finds the feature table and its geometry column
// via the GeoPackage registry tables.
func discoverFeatureTable(ctx context.Context, db *sql.DB) (string, string, error) {
	query := `
		SELECT c.table_name, g.column_name
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name
		LIMIT 1
	`
	var tableName, geomColumn string
	if err := db.QueryRowContext(ctx, query).Scan(&tableName, &geomColumn); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("GeoPackage contains no feature tables")
		}
		return "", "", fmt.Errorf("failed to read GeoPackage registry: %w", err)
	}
	return tableName, geomColumn, nil
}

func convertSQLiteValue(v any, isGeometry bool) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isGeometry {
		blob, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("geometry value is %T, expected blob", v)
		}
		g, _, err := geo.ParseGeoPackage(blob)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	switch x := v.(type) {
	case []byte:
		return string(x), nil
	case int64, float64, string, bool:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
