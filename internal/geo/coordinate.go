package geo

import (
	"fmt"
	"math"
	"strconv"
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
// It is a plain value; two coordinates are equal when both fields are equal.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Origin is the default map center.
var Origin = Coordinate{}

// Validate reports whether the coordinate lies in the geographic range.
// Latitude must be in [-90, 90] and longitude in [-180, 180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("coordinate is not a number")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", c.Lng)
	}

	return nil
}

// String formats the coordinate as "lat,lng".
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// ParseCoordinate parses latitude and longitude strings and validates the result.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}

	c := Coordinate{Lat: la, Lng: ln}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}
