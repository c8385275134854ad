package convert

import (
	"math"
	"testing"
	"time"

	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func ptr[T any](v T) *T { return &v }

func areaProperty() *schema.Property {
	return &schema.Property{
		Type:             schema.TypeFloat,
		ExclusiveMinimum: ptr(0.0),
		Maximum:          ptr(100000.0),
	}
}

func singleColumnTable(t *testing.T, name string, values []any) *table.Table {
	t.Helper()
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn(name, values))
	return tbl
}

func TestCoerceNumericRangeRequiredFails(t *testing.T) {
	tbl := singleColumnTable(t, "area", []any{int64(0)})
	resolved := &schema.Resolved{
		Properties: map[string]*schema.Property{"area": areaProperty()},
		Required:   map[string]bool{"area": true},
	}

	err := coerceTable(tbl, resolved, PolicyWarn)
	require.ErrorIs(t, err, ErrCoercion)
}

func TestCoerceNumericRangeOptionalNulls(t *testing.T) {
	tbl := singleColumnTable(t, "area", []any{int64(0), 25.5})
	resolved := &schema.Resolved{
		Properties: map[string]*schema.Property{"area": areaProperty()},
		Required:   map[string]bool{},
	}

	require.NoError(t, coerceTable(tbl, resolved, PolicyWarn))
	values, _ := tbl.Column("area")
	assert.Equal(t, []any{nil, 25.5}, values)
}

func TestCoerceNumericRangeOptionalFailPolicy(t *testing.T) {
	tbl := singleColumnTable(t, "area", []any{int64(0)})
	resolved := &schema.Resolved{
		Properties: map[string]*schema.Property{"area": areaProperty()},
		Required:   map[string]bool{},
	}

	err := coerceTable(tbl, resolved, PolicyFail)
	require.ErrorIs(t, err, ErrCoercion)
}

func TestCoerceIntegerOverflow(t *testing.T) {
	prop := &schema.Property{Type: schema.TypeInt16}

	_, err := coerceInteger(int64(40000), prop)
	require.Error(t, err)

	v, err := coerceInteger("2023", prop)
	require.NoError(t, err)
	assert.Equal(t, int64(2023), v)

	_, err = coerceInteger(12.5, prop)
	require.Error(t, err)
}

func TestCoerceIntegerFloatBeyondInt64Range(t *testing.T) {
	// Loaders deliver JSON numbers as float64, so an integral float far
	// outside the int64 range is reachable from valid input. It must be
	// rejected, not wrapped around by the conversion.
	for _, typ := range []schema.Type{schema.TypeInt64, schema.TypeUint64} {
		prop := &schema.Property{Type: typ}

		_, err := coerceInteger(1e30, prop)
		require.Error(t, err, typ)

		_, err = coerceInteger(-1e30, prop)
		require.Error(t, err, typ)

		_, err = coerceInteger(float64(math.MaxInt64), prop)
		require.Error(t, err, typ)
	}

	v, err := coerceInteger(1e15, &schema.Property{Type: schema.TypeInt64})
	require.NoError(t, err)
	assert.Equal(t, int64(1e15), v)
}

func TestCoerceBooleanRejectsNonBooleans(t *testing.T) {
	prop := &schema.Property{Type: schema.TypeBoolean}

	v, err := coerceValue(true, prop)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = coerceValue("J", prop)
	require.Error(t, err)
}

func TestCoerceStringConstraints(t *testing.T) {
	prop := &schema.Property{
		Type:      schema.TypeString,
		MinLength: ptr(2),
		MaxLength: ptr(4),
		Pattern:   "^[A-Z]+$",
	}

	v, err := coerceValue("ABC", prop)
	require.NoError(t, err)
	assert.Equal(t, "ABC", v)

	_, err = coerceValue("abc", prop)
	require.Error(t, err)
	_, err = coerceValue("A", prop)
	require.Error(t, err)

	enum := &schema.Property{Type: schema.TypeString, Enum: []string{"manual", "unknown"}}
	_, err = coerceValue("guessed", enum)
	require.Error(t, err)
}

func TestCoerceStringLengthCountsCharacters(t *testing.T) {
	prop := &schema.Property{
		Type:      schema.TypeString,
		MinLength: ptr(4),
		MaxLength: ptr(4),
	}

	// Four characters, eight bytes.
	v, err := coerceValue("äöüß", prop)
	require.NoError(t, err)
	assert.Equal(t, "äöüß", v)

	_, err = coerceValue("äöü", prop)
	require.Error(t, err)
	_, err = coerceValue("äöüße", prop)
	require.Error(t, err)
}

func TestCoerceTemporal(t *testing.T) {
	prop := &schema.Property{Type: schema.TypeDateTime}

	v, err := coerceValue("2023-06-01T10:30:00+02:00", prop)
	require.NoError(t, err)
	ts := v.(time.Time)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, 8, ts.Hour())

	_, err = coerceValue("01.06.2023", prop)
	require.Error(t, err)
}

func TestCoerceArrayElementConstraints(t *testing.T) {
	prop := &schema.Property{
		Type: schema.TypeArray,
		Items: &schema.Property{
			Type:      schema.TypeString,
			MinLength: ptr(2),
			Pattern:   "^[A-Z]{2}$",
		},
	}

	v, err := coerceValue([]string{"DE", "TH"}, prop)
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "TH"}, v)

	_, err = coerceValue([]string{"DE", "x"}, prop)
	require.Error(t, err)
}

func TestCoerceRequiredNullIsFatal(t *testing.T) {
	tbl := singleColumnTable(t, "id", []any{"a", nil})
	resolved := &schema.Resolved{
		Properties: map[string]*schema.Property{"id": {Type: schema.TypeString}},
		Required:   map[string]bool{"id": true},
	}

	err := coerceTable(tbl, resolved, PolicyWarn)
	require.ErrorIs(t, err, ErrCoercion)
}

func TestCoerceUnknownColumnIsFatal(t *testing.T) {
	tbl := singleColumnTable(t, "mystery", []any{"a"})
	resolved := &schema.Resolved{Properties: map[string]*schema.Property{}, Required: map[string]bool{}}

	err := coerceTable(tbl, resolved, PolicyWarn)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCoerceIsIdempotent(t *testing.T) {
	g := geom.NewPointFlat(geom.XY, []float64{10.5, 51.0})
	tbl := table.New("geometry")
	require.NoError(t, tbl.AddColumn("id", []any{int64(7)}))
	require.NoError(t, tbl.AddColumn("area", []any{"12.5"}))
	require.NoError(t, tbl.AddColumn("when", []any{"2023-06-01T00:00:00Z"}))
	require.NoError(t, tbl.AddColumn("codes", []any{[]any{"AB"}}))
	require.NoError(t, tbl.AddColumn("geometry", []any{g}))

	resolved := &schema.Resolved{
		Properties: map[string]*schema.Property{
			"id":       {Type: schema.TypeString},
			"area":     areaProperty(),
			"when":     {Type: schema.TypeDateTime},
			"codes":    {Type: schema.TypeArray, Items: &schema.Property{Type: schema.TypeString}},
			"geometry": {Type: schema.TypeGeometry},
		},
		Required: map[string]bool{"id": true, "geometry": true},
	}

	require.NoError(t, coerceTable(tbl, resolved, PolicyWarn))
	first := snapshot(tbl)

	require.NoError(t, coerceTable(tbl, resolved, PolicyWarn))
	assert.Equal(t, first, snapshot(tbl))
}

func snapshot(t *table.Table) map[string][]any {
	out := make(map[string][]any)
	for _, name := range t.Names() {
		values, _ := t.Column(name)
		out[name] = append([]any(nil), values...)
	}
	return out
}
