// Package sink writes conversion results: the table as a GeoParquet
// file and the collection as a separate JSON document on request.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/twpayne/go-geom"
	"github.com/untillpro/goutils/logger"

	"github.com/fiboa/converter/internal/convert"
	"github.com/fiboa/converter/internal/geo"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
)

// WriteParquet writes the coerced table as a GeoParquet file. The
// geometry column is stored as WKB with the standard "geo" file
// metadata; the collection document rides along under the "fiboa"
// metadata key so the artifact stays self-describing.
func WriteParquet(path string, t *table.Table, resolved *schema.Resolved, collection *convert.Collection) error {
	arrowSchema, err := buildArrowSchema(t, resolved, collection)
	if err != nil {
		return err
	}

	rec, err := buildRecord(arrowSchema, t, resolved)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer, err := pqarrow.NewFileWriter(arrowSchema, f,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd)),
		pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	logger.Info("wrote", t.NumRows(), "rows to", path)
	return nil
}

func buildArrowSchema(t *table.Table, resolved *schema.Resolved, collection *convert.Collection) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, t.NumColumns())
	for _, name := range t.Names() {
		prop := resolved.Properties[name]
		if prop == nil {
			return nil, fmt.Errorf("column %q has no schema definition", name)
		}
		dt, err := arrowType(prop)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     dt,
			Nullable: !resolved.IsRequired(name),
		})
	}

	geoMeta, err := geoMetadata(t)
	if err != nil {
		return nil, err
	}
	collectionMeta, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	md := arrow.NewMetadata(
		[]string{"geo", "fiboa"},
		[]string{geoMeta, string(collectionMeta)},
	)
	return arrow.NewSchema(fields, &md), nil
}

func arrowType(prop *schema.Property) (arrow.DataType, error) {
	switch prop.Type {
	case schema.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case schema.TypeUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case schema.TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case schema.TypeUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case schema.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.TypeUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case schema.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.TypeUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case schema.TypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case schema.TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.TypeString:
		return arrow.BinaryTypes.String, nil
	case schema.TypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	case schema.TypeDateTime:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}, nil
	case schema.TypeArray:
		if prop.Items == nil || prop.Items.Type != schema.TypeString {
			return nil, fmt.Errorf("unsupported array item type")
		}
		return arrow.ListOf(arrow.BinaryTypes.String), nil
	case schema.TypeGeometry:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("unsupported schema type %q", prop.Type)
	}
}

func buildRecord(arrowSchema *arrow.Schema, t *table.Table, resolved *schema.Resolved) (arrow.Record, error) {
	bldr := array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema)
	defer bldr.Release()

	for i, name := range t.Names() {
		prop := resolved.Properties[name]
		values, _ := t.Column(name)
		if err := appendColumn(bldr.Field(i), prop, values); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	return bldr.NewRecord(), nil
}

func appendColumn(b array.Builder, prop *schema.Property, values []any) error {
	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		if err := appendValue(b, prop, v); err != nil {
			return err
		}
	}
	return nil
}

func appendValue(b array.Builder, prop *schema.Property, v any) error {
	switch prop.Type {
	case schema.TypeBoolean:
		b.(*array.BooleanBuilder).Append(v.(bool))
	case schema.TypeInt8:
		b.(*array.Int8Builder).Append(int8(v.(int64)))
	case schema.TypeUint8:
		b.(*array.Uint8Builder).Append(uint8(v.(int64)))
	case schema.TypeInt16:
		b.(*array.Int16Builder).Append(int16(v.(int64)))
	case schema.TypeUint16:
		b.(*array.Uint16Builder).Append(uint16(v.(int64)))
	case schema.TypeInt32:
		b.(*array.Int32Builder).Append(int32(v.(int64)))
	case schema.TypeUint32:
		b.(*array.Uint32Builder).Append(uint32(v.(int64)))
	case schema.TypeInt64:
		b.(*array.Int64Builder).Append(v.(int64))
	case schema.TypeUint64:
		b.(*array.Uint64Builder).Append(uint64(v.(int64)))
	case schema.TypeFloat:
		b.(*array.Float32Builder).Append(float32(v.(float64)))
	case schema.TypeDouble:
		b.(*array.Float64Builder).Append(v.(float64))
	case schema.TypeString:
		b.(*array.StringBuilder).Append(v.(string))
	case schema.TypeDate:
		b.(*array.Date32Builder).Append(arrow.Date32FromTime(v.(time.Time)))
	case schema.TypeDateTime:
		ts, err := arrow.TimestampFromTime(v.(time.Time), arrow.Millisecond)
		if err != nil {
			return err
		}
		b.(*array.TimestampBuilder).Append(ts)
	case schema.TypeArray:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		vb := lb.ValueBuilder().(*array.StringBuilder)
		for _, s := range v.([]string) {
			vb.Append(s)
		}
	case schema.TypeGeometry:
		wkbData, err := geo.MarshalWKB(v.(geom.T))
		if err != nil {
			return err
		}
		b.(*array.BinaryBuilder).Append(wkbData)
	default:
		return fmt.Errorf("unsupported schema type %q", prop.Type)
	}
	return nil
}

// geoMetadata builds the GeoParquet "geo" file metadata document.
func geoMetadata(t *table.Table) (string, error) {
	types := map[string]bool{}
	values, _ := t.Column(t.GeometryColumn())
	for _, v := range values {
		g, ok := v.(geom.T)
		if !ok {
			continue
		}
		switch g.(type) {
		case *geom.Point:
			types["Point"] = true
		case *geom.LineString:
			types["LineString"] = true
		case *geom.Polygon:
			types["Polygon"] = true
		case *geom.MultiPoint:
			types["MultiPoint"] = true
		case *geom.MultiLineString:
			types["MultiLineString"] = true
		case *geom.MultiPolygon:
			types["MultiPolygon"] = true
		}
	}
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := map[string]any{
		"version":        "1.0.0",
		"primary_column": t.GeometryColumn(),
		"columns": map[string]any{
			t.GeometryColumn(): map[string]any{
				"encoding":       "WKB",
				"geometry_types": names,
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
