package geo

// Antipode returns the point diametrically opposite p on the globe.
//
// Latitude is negated. Longitude moves by 180 degrees towards zero, so inputs
// in (-180, 180] stay in (-180, 180]. A longitude of exactly 0 takes the
// "+180" branch and yields 180; both 180 and -180 yield 0. The branches must
// stay as written: callers compare results bit for bit.
func Antipode(p Coordinate) Coordinate {
	lng := p.Lng + 180
	if p.Lng > 0 {
		lng = p.Lng - 180
	}

	return Coordinate{Lat: -p.Lat, Lng: lng}
}
