// Package geo holds the geometry plumbing shared by source loaders and
// dataset migrations: GeoPackage binary decoding, ring normalization,
// and planar measures.
package geo

import (
	"encoding/binary"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// envelopeSizes maps the GeoPackage envelope indicator to the number
// of bytes the envelope occupies.
var envelopeSizes = [5]int{0, 32, 48, 48, 64}

// ParseGeoPackage decodes a GeoPackage geometry blob: the "GP" header
// (version, flags, SRID, optional envelope) followed by standard WKB.
func ParseGeoPackage(blob []byte) (geom.T, int32, error) {
	if len(blob) < 8 {
		return nil, 0, fmt.Errorf("geometry blob too short: %d bytes", len(blob))
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, 0, fmt.Errorf("missing GeoPackage magic, got %q", blob[:2])
	}
	flags := blob[3]

	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}
	srid := int32(order.Uint32(blob[4:8]))

	envelope := int(flags>>1) & 0x07
	if envelope >= len(envelopeSizes) {
		return nil, 0, fmt.Errorf("invalid envelope indicator %d", envelope)
	}
	offset := 8 + envelopeSizes[envelope]
	if len(blob) < offset {
		return nil, 0, fmt.Errorf("geometry blob truncated before WKB")
	}

	if flags&0x20 != 0 {
		// Empty-geometry flag: no WKB payload follows.
		return nil, srid, nil
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode WKB: %w", err)
	}
	return g, srid, nil
}

// MarshalWKB encodes a geometry as little-endian WKB, the form the
// columnar output stores.
func MarshalWKB(g geom.T) ([]byte, error) {
	return wkb.Marshal(g, wkb.NDR)
}

// UnmarshalWKB decodes a WKB geometry.
func UnmarshalWKB(data []byte) (geom.T, error) {
	return wkb.Unmarshal(data)
}
