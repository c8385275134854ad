package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fiboa/converter/internal/geo"
	"github.com/fiboa/converter/internal/table"
	"github.com/untillpro/goutils/logger"
)

// LoadPostGIS reads one PostGIS table. The locator carries the target
// table in its URL fragment: postgres://user@host/db#parcels
func LoadPostGIS(ctx context.Context, locator string) (*table.Table, error) {
	connString, tableName, found := strings.Cut(locator, "#")
	if !found || tableName == "" {
		return nil, fmt.Errorf("PostGIS locator needs a #table fragment: %s", locator)
	}

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	geomColumn, err := postgisGeometryColumn(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}

	names, err := postgisColumns(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}
	logger.Verbose("reading table", tableName, "geometry column", geomColumn)

	exprs := make([]string, len(names))
	for i, name := range names {
		if name == geomColumn {
			exprs[i] = "ST_AsBinary(" + quoteIdentifier(name) + ")"
			continue
		}
		exprs[i] = quoteIdentifier(name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), quoteIdentifier(tableName))

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", tableName, err)
	}
	defer rows.Close()

	columns := make([][]any, len(names))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			cv, err := convertPostgresValue(v, names[i] == geomColumn)
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

func postgisGeometryColumn(ctx context.Context, conn *pgx.Conn, tableName string) (string, error) {
	var column string
	err := conn.QueryRow(ctx,
		"SELECT f_geometry_column FROM geometry_columns WHERE f_table_name = $1 LIMIT 1",
		tableName).Scan(&column)
	if err != nil {
		return "", fmt.Errorf("table %s has no registered geometry column: %w", tableName, err)
	}
	return column, nil
}

func postgisColumns(ctx context.Context, conn *pgx.Conn, tableName string) ([]string, error) {
	rows, err := conn.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func convertPostgresValue(v any, isGeometry bool) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isGeometry {
		blob, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("geometry value is %T, expected WKB bytes", v)
		}
		return geo.UnmarshalWKB(blob)
	}
	switch x := v.(type) {
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64, float64, string, bool, time.Time:
		return x, nil
	case float32:
		return float64(x), nil
	case []byte:
		return string(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
