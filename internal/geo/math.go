package geo

import "math"

const (
	// EarthRadius is the mean Earth radius in meters.
	EarthRadius = 6371008.8

	// MaxMercatorLat is the latitude limit of the Web Mercator projection.
	MaxMercatorLat = 85.05112878
)

// Tile identifies a Web Mercator (slippy map) tile.
type Tile struct {
	Z, X, Y int
}

// TileAt returns the tile containing c at the given zoom level.
// Latitudes beyond the Mercator limit are clamped to the edge rows.
func TileAt(c Coordinate, zoom int) Tile {
	lat := c.Lat
	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		lat = -MaxMercatorLat
	}

	n := float64(int(1) << zoom)
	latRad := lat * math.Pi / 180

	x := int(math.Floor((c.Lng + 180.0) / 360.0 * n))
	y := int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2.0 * n))

	maxIdx := int(n) - 1
	x = clampInt(x, 0, maxIdx)
	y = clampInt(y, 0, maxIdx)

	return Tile{Z: zoom, X: x, Y: y}
}

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
