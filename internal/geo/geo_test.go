package geo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// gpBlob wraps WKB in a minimal GeoPackage header (little-endian, no
// envelope).
func gpBlob(t *testing.T, g geom.T, srid uint32) []byte {
	t.Helper()
	wkbData, err := MarshalWKB(g)
	require.NoError(t, err)

	header := make([]byte, 8)
	header[0], header[1] = 'G', 'P'
	header[2] = 0    // version
	header[3] = 0x01 // little-endian, no envelope
	binary.LittleEndian.PutUint32(header[4:], srid)
	return append(header, wkbData...)
}

func TestParseGeoPackage(t *testing.T) {
	point := geom.NewPointFlat(geom.XY, []float64{11.5, 50.9})

	g, srid, err := ParseGeoPackage(gpBlob(t, point, 25832))
	require.NoError(t, err)
	assert.Equal(t, int32(25832), srid)
	assert.Equal(t, point.FlatCoords(), g.(*geom.Point).FlatCoords())
}

func TestParseGeoPackageRejectsGarbage(t *testing.T) {
	_, _, err := ParseGeoPackage([]byte{1, 2, 3})
	require.Error(t, err)

	_, _, err = ParseGeoPackage([]byte{'X', 'Y', 0, 0, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestParseGeoPackageEmptyFlag(t *testing.T) {
	header := make([]byte, 8)
	header[0], header[1] = 'G', 'P'
	header[3] = 0x01 | 0x20 // little-endian, empty geometry
	binary.LittleEndian.PutUint32(header[4:], 4326)

	g, srid, err := ParseGeoPackage(header)
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.Equal(t, int32(4326), srid)
}

func TestAreaPolygonWithHole(t *testing.T) {
	poly := geom.NewPolygon(geom.XY)
	_, err := poly.SetCoords([][]geom.Coord{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	})
	require.NoError(t, err)

	assert.InDelta(t, 96.0, Area(poly), 1e-9)
}

func TestNormalizeClosesAndOrientsRings(t *testing.T) {
	poly := geom.NewPolygon(geom.XY)
	// Clockwise and unclosed.
	_, err := poly.SetCoords([][]geom.Coord{
		{{0, 0}, {0, 10}, {10, 10}, {10, 0}},
	})
	require.NoError(t, err)

	fixed, err := Normalize(poly)
	require.NoError(t, err)

	rings := fixed.(*geom.Polygon).Coords()
	ring := rings[0]
	assert.True(t, ring[0].Equal(geom.XY, ring[len(ring)-1]))
	assert.Positive(t, signedArea(ring))
	assert.InDelta(t, 100.0, Area(fixed), 1e-9)
}
