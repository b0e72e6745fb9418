package geo

import (
	"math"
	"math/rand/v2"
	"testing"
)

const tolerance = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestAntipodeLiteralCases(t *testing.T) {
	cases := []struct {
		name string
		in   Coordinate
		want Coordinate
	}{
		{"origin", Coordinate{0, 0}, Coordinate{0, 180}},
		{"new york", Coordinate{40.7128, -74.0060}, Coordinate{-40.7128, 105.994}},
		{"sydney", Coordinate{-33.8688, 151.2093}, Coordinate{33.8688, -28.7907}},
		{"date line east", Coordinate{10, 180}, Coordinate{-10, 0}},
		{"date line west", Coordinate{10, -180}, Coordinate{-10, 0}},
		{"equator", Coordinate{0, 45}, Coordinate{0, -135}},
		{"north pole", Coordinate{90, 30}, Coordinate{-90, -150}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Antipode(tc.in)
			if !near(got.Lat, tc.want.Lat) || !near(got.Lng, tc.want.Lng) {
				t.Fatalf("Antipode(%v) = %v; want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestAntipodeZeroLongitudeTakesPlusBranch(t *testing.T) {
	got := Antipode(Coordinate{Lat: 12.5, Lng: 0})
	if got.Lng != 180 {
		t.Fatalf("longitude 0 mapped to %v; want exactly 180", got.Lng)
	}
	if got.Lat != -12.5 {
		t.Fatalf("latitude 12.5 mapped to %v; want -12.5", got.Lat)
	}
}

func randomCoordinate(r *rand.Rand) Coordinate {
	// longitude in (-180, 180]
	return Coordinate{
		Lat: r.Float64()*180 - 90,
		Lng: 180 - r.Float64()*360,
	}
}

func TestAntipodeProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 10000; i++ {
		p := randomCoordinate(r)
		a := Antipode(p)

		if a.Lat != -p.Lat {
			t.Fatalf("Antipode(%v).Lat = %v; want %v", p, a.Lat, -p.Lat)
		}
		if a.Lng <= -180 || a.Lng > 180 {
			t.Fatalf("Antipode(%v).Lng = %v; outside (-180, 180]", p, a.Lng)
		}

		if p.Lng == 0 || p.Lng == 180 || p.Lng == -180 {
			continue
		}
		back := Antipode(a)
		if !near(back.Lat, p.Lat) || !near(back.Lng, p.Lng) {
			t.Fatalf("Antipode(Antipode(%v)) = %v; want round trip", p, back)
		}
	}
}

func TestAntipodeRoundTripBreaksOnlyAtSeams(t *testing.T) {
	// 0 -> 180 -> 0 survives, 180 -> 0 -> 180 survives, -180 -> 0 -> 180 does not.
	if got := Antipode(Antipode(Coordinate{Lat: 5, Lng: -180})); got.Lng != 180 {
		t.Fatalf("double antipode of lng -180 = %v; want 180", got.Lng)
	}
}

func TestAntipodeIsAntipodal(t *testing.T) {
	p := Coordinate{Lat: 10, Lng: 20}
	d := Distance(p, Antipode(p))
	want := math.Pi * EarthRadius
	if math.Abs(d-want) > 1 {
		t.Fatalf("Distance to antipode = %v; want %v", d, want)
	}
}
