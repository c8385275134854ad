package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// signedArea computes the shoelace area of a ring; positive for
// counter-clockwise winding.
func signedArea(ring []geom.Coord) float64 {
	var sum float64
	n := len(ring)
	if n < 3 {
		return 0
	}
	for i := 0; i < n-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}

// Area returns the planar area of a polygonal geometry in squared
// coordinate units. Holes are subtracted; non-areal geometries yield 0.
func Area(g geom.T) float64 {
	switch p := g.(type) {
	case *geom.Polygon:
		return polygonArea(p.Coords())
	case *geom.MultiPolygon:
		var total float64
		for _, poly := range p.Coords() {
			total += polygonArea(poly)
		}
		return total
	default:
		return 0
	}
}

func polygonArea(rings [][]geom.Coord) float64 {
	if len(rings) == 0 {
		return 0
	}
	area := math.Abs(signedArea(rings[0]))
	for _, hole := range rings[1:] {
		area -= math.Abs(signedArea(hole))
	}
	return area
}

// Normalize repairs the ring structure of polygonal geometries:
// unclosed rings are closed and winding is fixed to counter-clockwise
// exteriors with clockwise holes. Other geometry types pass through.
func Normalize(g geom.T) (geom.T, error) {
	switch p := g.(type) {
	case *geom.Polygon:
		coords := p.Coords()
		normalizeRings(coords)
		fixed, err := p.SetCoords(coords)
		if err != nil {
			return nil, err
		}
		return fixed, nil
	case *geom.MultiPolygon:
		coords := p.Coords()
		for _, rings := range coords {
			normalizeRings(rings)
		}
		fixed, err := p.SetCoords(coords)
		if err != nil {
			return nil, err
		}
		return fixed, nil
	default:
		return g, nil
	}
}

func normalizeRings(rings [][]geom.Coord) {
	for i, ring := range rings {
		if len(ring) == 0 {
			continue
		}
		if !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
			rings[i] = append(ring, ring[0])
			ring = rings[i]
		}
		ccw := signedArea(ring) > 0
		if (i == 0 && !ccw) || (i > 0 && ccw) {
			reverseRing(ring)
		}
	}
}

func reverseRing(ring []geom.Coord) {
	for l, r := 0, len(ring)-1; l < r; l, r = l+1, r-1 {
		ring[l], ring[r] = ring[r], ring[l]
	}
}
